package entities

import "time"

// Comment is a public comment on a location, optionally replying to another.
type Comment struct {
	ID          string    `json:"id" db:"id"`
	LocationID  string    `json:"location_id" db:"location_id"`
	Content     string    `json:"content" db:"content"`
	PostedBy    *string   `json:"posted_by" db:"posted_by"`
	ContactInfo *string   `json:"contact_info,omitempty" db:"contact_info"`
	Hidden      bool      `json:"-" db:"hidden"`
	ReplyToID   *string   `json:"reply_to_id,omitempty" db:"reply_to_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Replies []*Comment `json:"Replies,omitempty" db:"-"`
}
