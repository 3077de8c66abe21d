package events

import (
	"context"
	"encoding/json"
)

// Event is the payload published for every participant-facing change.
type Event struct {
	Kind       string `json:"kind"`
	ProjectID  int    `json:"project_id"`
	Recipients []int  `json:"recipients"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

// Publisher sends events to whoever delivers notifications.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Handler processes one event. A returned error requeues the delivery.
type Handler func(ctx context.Context, ev Event) error

// Direct hands events to a handler in-process; used when no broker is configured.
type Direct struct {
	Handler Handler
}

func (d Direct) Publish(ctx context.Context, ev Event) error {
	if d.Handler == nil {
		return nil
	}
	return d.Handler(ctx, ev)
}

func decode(body []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(body, &ev)
	return ev, err
}
