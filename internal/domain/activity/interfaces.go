package activity

import "context"

// Repository persists activity entries. Entries are scoped by store, the
// sessions file path or sqlite document name they describe.
type Repository interface {
	Log(ctx context.Context, store string, entry *ActivityEntry) error
	List(ctx context.Context, store string, opts ListActivityOptions) ([]ActivityEntry, error)
}

// ListActivityOptions filters a listing. Nil filters match everything; a
// zero Limit uses the service default.
type ListActivityOptions struct {
	Subject      *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
