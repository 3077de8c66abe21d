package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"trusthire/internal/models"
	"trusthire/internal/project/lifecycle"
)

const MaxMessageLength = 4000

type MessageStore interface {
	CreateMessage(ctx context.Context, m models.Message) (models.Message, error)
	ListByProject(ctx context.Context, projectID int, afterID int64) ([]models.Message, error)
}

type ProjectReader interface {
	GetByID(ctx context.Context, id int) (models.Project, error)
}

type MessageService struct {
	MessageRepo MessageStore
	ProjectRepo ProjectReader
	Dispatcher  *Dispatcher
}

func (s *MessageService) participantProject(ctx context.Context, projectID, userID int) (models.Project, error) {
	p, err := s.ProjectRepo.GetByID(ctx, projectID)
	if err != nil {
		return models.Project{}, err
	}
	if !p.IsParticipant(userID) {
		return models.Project{}, lifecycle.ErrNotParticipant
	}
	return p, nil
}

// Send appends a chat message from a participant and pushes it to both parties.
func (s *MessageService) Send(ctx context.Context, projectID, senderID int, text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, fmt.Errorf("%w: message text is empty", models.ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return models.Message{}, fmt.Errorf("%w: message longer than %d characters", models.ErrInvalidInput, MaxMessageLength)
	}
	p, err := s.participantProject(ctx, projectID, senderID)
	if err != nil {
		return models.Message{}, err
	}

	msg, err := s.MessageRepo.CreateMessage(ctx, models.Message{
		ProjectID: projectID,
		SenderID:  senderID,
		Kind:      models.MessageKindText,
		Text:      text,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return models.Message{}, err
	}
	s.Dispatcher.Message(p, msg)
	return msg, nil
}

// List returns the feed oldest first, optionally only messages after afterID.
func (s *MessageService) List(ctx context.Context, projectID, userID int, afterID int64) ([]models.Message, error) {
	if _, err := s.participantProject(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.MessageRepo.ListByProject(ctx, projectID, afterID)
}
