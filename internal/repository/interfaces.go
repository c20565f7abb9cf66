package repository

import (
	"context"
	"time"

	"github.com/ganot/quickssh/internal/domain/activity"
)

// Document is a named blob with a monotonically increasing revision.
type Document struct {
	Name      string
	Content   []byte
	Format    string
	Revision  int64
	UpdatedAt time.Time
}

// DocumentRepository manages persisted documents (sessions, menu).
type DocumentRepository interface {
	Get(ctx context.Context, name string) (*Document, error)
	// Put stores doc. When expectedRevision >= 0 the stored revision must
	// match or ErrConflict is returned.
	Put(ctx context.Context, doc *Document, expectedRevision int64) error
	Delete(ctx context.Context, name string) error
}

// ActivityRepository manages activity log persistence
type ActivityRepository interface {
	activity.Repository
}
