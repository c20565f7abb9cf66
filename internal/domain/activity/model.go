package activity

import "time"

// ActivityType represents the type of store event
type ActivityType string

const (
	TypeSessionCreated       ActivityType = "session_created"
	TypeFolderCreated        ActivityType = "folder_created"
	TypeNodeRemoved          ActivityType = "node_removed"
	TypeSessionsReloaded     ActivityType = "sessions_reloaded"
	TypePasswordsReencrypted ActivityType = "passwords_reencrypted"
	TypeSessionOpened        ActivityType = "session_opened"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	Store        string       `json:"store"`
	ActivityType ActivityType `json:"type"`
	Subject      string       `json:"subject,omitempty"` // slash-separated node location
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
