package push

import (
	"context"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"

	"trusthire/internal/events"
	"trusthire/internal/logger"
)

// Message is one push notification for a single device.
type Message struct {
	Token     string
	Title     string
	Body      string
	Kind      string
	ProjectID int
}

// Sender delivers push notifications.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// FCM sends through Firebase Cloud Messaging.
type FCM struct {
	Client *messaging.Client
}

// NewFCM builds a messaging client from a service-account JSON file.
func NewFCM(ctx context.Context, credentialsFile string) (*FCM, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return &FCM{Client: client}, nil
}

func (f *FCM) Send(ctx context.Context, msg Message) error {
	_, err := f.Client.Send(ctx, buildMessage(msg))
	return err
}

func buildMessage(msg Message) *messaging.Message {
	return &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: map[string]string{
			"kind":       msg.Kind,
			"project_id": strconv.Itoa(msg.ProjectID),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority": "10",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: msg.Title,
						Body:  msg.Body,
					},
					Sound: "default",
				},
			},
		},
	}
}

// TokenSource resolves a user's device token; empty means the user has none.
type TokenSource interface {
	FCMToken(ctx context.Context, userID int) (string, error)
}

// Notifier turns events into pushes for each recipient.
type Notifier struct {
	Tokens TokenSource
	Sender Sender
	Log    logger.Logger
}

// Handle is an events.Handler. Send failures for one recipient do not stop the others.
func (n *Notifier) Handle(ctx context.Context, ev events.Event) error {
	if n.Sender == nil {
		return nil
	}
	for _, uid := range ev.Recipients {
		token, err := n.Tokens.FCMToken(ctx, uid)
		if err != nil {
			return fmt.Errorf("lookup token for user %d: %w", uid, err)
		}
		if token == "" {
			continue
		}
		err = n.Sender.Send(ctx, Message{
			Token:     token,
			Title:     ev.Title,
			Body:      ev.Body,
			Kind:      ev.Kind,
			ProjectID: ev.ProjectID,
		})
		if err != nil {
			n.Log.Errorf("push %s to user %d: %v", ev.Kind, uid, err)
			continue
		}
		n.Log.Infof("push %s sent to user %d", ev.Kind, uid)
	}
	return nil
}
