package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/rushrhq/messaging/errors"
	"github.com/rushrhq/messaging/server/response"
)

type createConversationRequest struct {
	ProviderID string `json:"provider_id" binding:"required"`
	Title      string `json:"title"`
	JobRef     string `json:"job_ref"`
}

// handleCreateConversation starts (or returns) the thread between the
// acting user and a provider. Create-or-get semantics: posting the same
// provider/job pair twice lands on the same conversation.
func (s *Server) handleCreateConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}

		var req createConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		providerID, err := uuid.Parse(req.ProviderID)
		if err != nil {
			response.JSON(c, "invalid provider id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		conv, err := s.ConversationService.CreateOrGet(userID, providerID, req.Title, req.JobRef)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.JSON(c, "conversation ready", http.StatusCreated, conv, nil)
	}
}

func (s *Server) handleListConversations() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		summaries, err := s.ConversationService.List(userID)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.JSON(c, "", http.StatusOK, summaries, nil)
	}
}

func (s *Server) handleGetConversation() gin.HandlerFunc {
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
		conv, err := s.ConversationService.Get(conversationID, userID)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.JSON(c, "", http.StatusOK, conv, nil)
	}
}

func (s *Server) handleArchiveConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.setConversationState(c, s.ConversationService.Archive, "conversation archived")
	}
}

func (s *Server) handleDeleteConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.setConversationState(c, s.ConversationService.Delete, "conversation deleted")
	}
}

func (s *Server) setConversationState(c *gin.Context, apply func(conversationID, userID uuid.UUID) error, message string) {
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
	if err := apply(conversationID, userID); err != nil {
		handleServiceError(c, err)
		return
	}
	response.JSON(c, message, http.StatusOK, nil, nil)
}

type markReadRequest struct {
	UpToMessageID string `json:"up_to_message_id" binding:"required"`
}

func (s *Server) handleMarkRead() gin.HandlerFunc {
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
		var req markReadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		messageID, err := uuid.Parse(req.UpToMessageID)
		if err != nil {
			response.JSON(c, "invalid message id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}
		if err := s.ConversationService.MarkRead(conversationID, userID, messageID); err != nil {
			handleServiceError(c, err)
			return
		}
		response.JSON(c, "read cursor updated", http.StatusOK, nil, nil)
	}
}

type setTypingRequest struct {
	IsTyping *bool `json:"is_typing" binding:"required"`
}

func (s *Server) handleSetTyping() gin.HandlerFunc {
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
		var req setTypingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		if err := s.ConversationService.SetTyping(conversationID, userID, *req.IsTyping); err != nil {
			handleServiceError(c, err)
			return
		}
		response.JSON(c, "", http.StatusOK, nil, nil)
	}
}
