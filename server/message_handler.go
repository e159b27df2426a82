package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/rushrhq/messaging/errors"
	"github.com/rushrhq/messaging/server/response"
	"github.com/rushrhq/messaging/services"
)

func (s *Server) handleListMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		conversationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid conversation id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}
		limit, _ := strconv.Atoi(c.Query("limit"))
		beforeSeq, _ := strconv.ParseUint(c.Query("before"), 10, 64)

		msgs, err := s.MessageService.List(conversationID, userID, limit, beforeSeq)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.JSON(c, "", http.StatusOK, msgs, nil)
	}
}

func (s *Server) handleSendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		conversationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid conversation id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}
		var in services.SendMessageInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		msg, err := s.MessageService.Send(conversationID, userID, in)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.JSON(c, "message sent", http.StatusCreated, msg, nil)
	}
}

func (s *Server) handleDeleteMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		messageID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid message id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}
		if err := s.MessageService.Delete(messageID, userID); err != nil {
			handleServiceError(c, err)
			return
		}
		response.JSON(c, "message deleted", http.StatusOK, nil, nil)
	}
}

type systemMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// handleSendSystemMessage lets external collaborators (payment milestones,
// job status changes) drop a platform-authored marker into a thread.
func (s *Server) handleSendSystemMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid conversation id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}
		var req systemMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		msg, err := s.MessageService.SendSystem(conversationID, req.Content)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.JSON(c, "system message sent", http.StatusCreated, msg, nil)
	}
}

// handlePurgeMessages is the retention sweep entry point: hard-delete
// soft-deleted messages older than the retention period.
func (s *Server) handlePurgeMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		purged, err := s.MessageService.PurgeExpired(time.Now())
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.JSON(c, "purge complete", http.StatusOK, gin.H{"purged": purged}, nil)
	}
}
