package store

import (
	"context"

	"github.com/ganot/quickssh/internal/domain/activity"
)

// Codec encodes and decodes stored passwords.
type Codec interface {
	Encode(plaintext string) (string, error)
	Decode(token string) (string, error)
}

// Backend holds the persisted sessions document. Read returns
// repository.ErrNotFound when no document has been written yet.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// MenuSink receives the rendered menu document after every change.
type MenuSink interface {
	WriteMenu(ctx context.Context, data []byte) error
}

// Launcher starts the external client.
type Launcher interface {
	Launch(ctx context.Context, argv []string) error
}

// ActivityLogger records store events.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}
