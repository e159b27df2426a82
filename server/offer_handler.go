package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/rushrhq/messaging/errors"
	"github.com/rushrhq/messaging/server/response"
	"github.com/rushrhq/messaging/services"
)

func (s *Server) handleSendOffer() gin.HandlerFunc {
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
		var in services.OfferInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		msg, err := s.OfferService.SendOffer(conversationID, userID, in)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.JSON(c, "offer sent", http.StatusCreated, msg, nil)
	}
}

type respondToOfferRequest struct {
	Action       string  `json:"action" binding:"required"`
	CounterPrice float64 `json:"counter_price"`
	CounterDays  int     `json:"counter_days"`
	CounterNotes string  `json:"counter_notes"`
}

func (s *Server) handleRespondToOffer() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		offerID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid offer id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}
		var req respondToOfferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		var counter *services.CounterInput
		if req.Action == services.OfferActionCounter {
			counter = &services.CounterInput{
				Price: req.CounterPrice,
				Days:  req.CounterDays,
				Notes: req.CounterNotes,
			}
		}
		offer, err := s.OfferService.Respond(offerID, userID, req.Action, counter)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.JSON(c, "offer updated", http.StatusOK, offer, nil)
	}
}

// handleExpireOffers is the time-based sweep for open offers past their
// deadline, driven by the external scheduler.
func (s *Server) handleExpireOffers() gin.HandlerFunc {
	return func(c *gin.Context) {
		expired, err := s.OfferService.ExpireOpen(time.Now())
		if err != nil {
			handleServiceError(c, err)
			return
		}
		response.JSON(c, "expiry sweep complete", http.StatusOK, gin.H{"expired": expired}, nil)
	}
}
