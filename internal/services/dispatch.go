package services

import (
	"context"
	"time"

	"trusthire/internal/events"
	"trusthire/internal/logger"
	"trusthire/internal/models"
	"trusthire/internal/project/lifecycle"
)

// Feed pushes live updates to connected users.
type Feed interface {
	Push(userIDs []int, event string, payload interface{})
}

const (
	FeedEventMessage = "message"
	FeedEventProject = "project"
)

// Dispatcher fans committed changes out to the live feed and the notification bus.
type Dispatcher struct {
	Feed   Feed
	Events events.Publisher
	Log    logger.Logger
}

func (d *Dispatcher) participants(p models.Project) []int {
	return []int{p.ClientID, p.FreelancerID}
}

// Project announces the new project state and every message/notice of out.
func (d *Dispatcher) Project(p models.Project, out lifecycle.Outcome) {
	if d == nil {
		return
	}
	if d.Feed != nil {
		d.Feed.Push(d.participants(p), FeedEventProject, p)
		for _, m := range out.Messages {
			d.Feed.Push(d.participants(p), FeedEventMessage, m)
		}
	}
	for _, n := range out.Notices {
		d.Notice(n)
	}
}

// Message pushes a chat message to both parties.
func (d *Dispatcher) Message(p models.Project, m models.Message) {
	if d == nil || d.Feed == nil {
		return
	}
	d.Feed.Push(d.participants(p), FeedEventMessage, m)
}

// Notice publishes n; failures are logged, never returned, since the change is already committed.
func (d *Dispatcher) Notice(n lifecycle.Notice) {
	if d == nil || d.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := d.Events.Publish(ctx, events.Event{
		Kind:       n.Kind,
		ProjectID:  n.ProjectID,
		Recipients: n.Recipients,
		Title:      n.Title,
		Body:       n.Body,
	})
	if err != nil && d.Log != nil {
		d.Log.Errorf("publish %s for project %d: %v", n.Kind, n.ProjectID, err)
	}
}
