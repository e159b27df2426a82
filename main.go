package main

import (
	"context"
	"log"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"github.com/rushrhq/messaging/config"
	"github.com/rushrhq/messaging/db"
	"github.com/rushrhq/messaging/mailingservices"
	"github.com/rushrhq/messaging/server"
	"github.com/rushrhq/messaging/services"
	"google.golang.org/api/option"
)

// initFirebase sets up the FCM client for push notifications. Push is
// optional; without credentials the service runs email-only.
func initFirebase(conf *config.Config) *messaging.Client {
	if conf.GoogleApplicationCredentials == "" {
		log.Println("no firebase credentials configured, push notifications disabled")
		return nil
	}
	opt := option.WithCredentialsFile(conf.GoogleApplicationCredentials)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		log.Printf("error initializing Firebase app: %v", err)
		return nil
	}
	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("error getting Messaging client: %v", err)
		return nil
	}
	log.Println("Firebase Messaging client initialized")
	return client
}

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	mailgunClient := &mailingservices.Mailgun{}
	mailgunClient.Init(conf)

	fcmClient := initFirebase(conf)

	gormDB := db.GetDB(conf)
	userRepo := db.NewUserRepo(gormDB)
	convRepo := db.NewConversationRepo(gormDB)
	msgRepo := db.NewMessageRepo(gormDB)
	offerRepo := db.NewOfferRepo(gormDB)

	hub := server.NewHub()
	notifier := services.NewNotificationService(mailgunClient, fcmClient)

	convService := services.NewConversationService(convRepo, msgRepo, hub, conf)
	msgService := services.NewMessageService(msgRepo, convRepo, userRepo, notifier, hub, conf)
	offerService := services.NewOfferService(offerRepo, msgRepo, convRepo, userRepo, notifier, hub, conf)
	mediaService := services.NewMediaService(conf)

	s := &server.Server{
		Config:                 conf,
		Mail:                   mailgunClient,
		DB:                     *gormDB,
		UserRepository:         userRepo,
		ConversationRepository: convRepo,
		MessageRepository:      msgRepo,
		OfferRepository:        offerRepo,
		ConversationService:    convService,
		MessageService:         msgService,
		OfferService:           offerService,
		MediaService:           mediaService,
		Hub:                    hub,
	}

	s.Start()
}
