// Package notify delivers matched pools to a chat webhook.
package notify

import (
	"context"
	"time"

	"github.com/ogulcanaydogan/pool-watch/pkg/model"
)

// Notifier sends a batch of pools to an external system.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers one message covering every pool in batch.
	Send(ctx context.Context, batch []model.Pool) error
}

// Formatter turns a batch into a webhook JSON payload.
type Formatter interface {
	// Name identifies the layout (e.g. "lark", "slack").
	Name() string

	// Payload returns a value that is marshalled as the request body.
	Payload(batch []model.Pool, at time.Time) any
}

// ResponseChecker is implemented by formats whose webhook reports failures
// in a 2xx response body.
type ResponseChecker interface {
	CheckResponse(body []byte) error
}
