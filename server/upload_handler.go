package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/rushrhq/messaging/errors"
	"github.com/rushrhq/messaging/server/response"
)

// handleUploadAttachment uploads one file to object storage and returns
// the URL/metadata record the client then includes in a send-message call.
func (s *Server) handleUploadAttachment() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		fileHeader, err := c.FormFile("file")
		if err != nil {
			response.JSON(c, "file is required", http.StatusBadRequest, nil, err)
			return
		}
		attachment, err := s.MediaService.UploadAttachment(fileHeader, userID)
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		response.JSON(c, "file uploaded", http.StatusCreated, attachment, nil)
	}
}
