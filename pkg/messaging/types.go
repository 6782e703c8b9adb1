package messaging

import "github.com/google/uuid"

type ChangeTopic string

const (
	PhotosChanged ChangeTopic = "photo_changed"
	Tracking      ChangeTopic = "tracking"
)

// PhotoChange is published after admin writes so every replica drops its
// cached aggregates.
type PhotoChange struct {
	Upserted []uuid.UUID `json:"upserted,omitempty"`
	Deleted  []uuid.UUID `json:"deleted,omitempty"`
}

func (c PhotoChange) IsEmpty() bool {
	return len(c.Upserted) == 0 && len(c.Deleted) == 0
}
