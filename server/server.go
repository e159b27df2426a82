package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rushrhq/messaging/config"
	"github.com/rushrhq/messaging/db"
	"github.com/rushrhq/messaging/mailingservices"
	"github.com/rushrhq/messaging/services"
)

type Server struct {
	Config                 *config.Config
	Mail                   *mailingservices.Mailgun
	DB                     db.GormDB
	UserRepository         db.UserRepository
	ConversationRepository db.ConversationRepository
	MessageRepository      db.MessageRepository
	OfferRepository        db.OfferRepository
	ConversationService    services.ConversationService
	MessageService         services.MessageService
	OfferService           services.OfferService
	MediaService           services.MediaService
	Hub                    *Hub
}

// Start runs the hub and the HTTP server, and shuts down cleanly on
// SIGINT/SIGTERM.
func (s *Server) Start() {
	go s.Hub.Run()

	r := s.setupRouter()
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Config.Port),
		Handler: r,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("server exited")
}
