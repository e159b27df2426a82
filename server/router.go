package server

import (
	"fmt"
	"os"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())

	allowedOrigins := []string{"http://localhost:3000"}
	if s.Config.AccessControlAllowOrigin != "" {
		allowedOrigins = []string{s.Config.AccessControlAllowOrigin}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = 32 << 20
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{Rate: time.Second, Limit: 5})
	sendLimit := limitRateForMessageSend(store)

	apirouter := router.Group("/api/v1")

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/conversations", s.handleListConversations())
	authorized.POST("/conversations", s.handleCreateConversation())
	authorized.GET("/conversations/:id", s.handleGetConversation())
	authorized.PUT("/conversations/:id/archive", s.handleArchiveConversation())
	authorized.DELETE("/conversations/:id", s.handleDeleteConversation())
	authorized.PUT("/conversations/:id/read", s.handleMarkRead())
	authorized.PUT("/conversations/:id/typing", s.handleSetTyping())
	authorized.GET("/conversations/:id/messages", s.handleListMessages())
	authorized.POST("/conversations/:id/messages", sendLimit, s.handleSendMessage())
	authorized.POST("/conversations/:id/offers", sendLimit, s.handleSendOffer())
	authorized.POST("/offers/:id/respond", s.handleRespondToOffer())
	authorized.DELETE("/messages/:id", s.handleDeleteMessage())
	authorized.POST("/attachments", s.handleUploadAttachment())
	authorized.GET("/ws", s.handleWebSocket())

	// Sweeps and platform events, called by external schedulers and
	// collaborators rather than end users.
	internal := apirouter.Group("/internal")
	internal.Use(s.RequireInternalToken())
	internal.POST("/offers/expire", s.handleExpireOffers())
	internal.POST("/messages/purge", s.handlePurgeMessages())
	internal.POST("/conversations/:id/system", s.handleSendSystemMessage())
}
