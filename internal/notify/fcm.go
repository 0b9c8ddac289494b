package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"revivatech-backend/internal/logger"
)

// FCMSender delivers push notifications through Firebase Cloud Messaging.
// The recipient is the device registration token.
type FCMSender struct {
	client *messaging.Client
}

func NewFCMSender(ctx context.Context, credentialsFile, projectID string) (*FCMSender, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID},
		option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}

	return &FCMSender{client: client}, nil
}

func (s *FCMSender) Send(ctx context.Context, recipient, title, message string) error {
	msg := &messaging.Message{
		Token: recipient,
		Notification: &messaging.Notification{
			Title: title,
			Body:  message,
		},
	}

	logger.ExternalServiceCall("FCM", "Send")
	id, err := s.client.Send(ctx, msg)
	if err != nil {
		logger.ExternalServiceResult("FCM", "Send", err)
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	logger.ExternalServiceResult("FCM", "Send", nil, "message_id", id)

	return nil
}
