package models

import "time"

// Discovery is a persisted (image, fact) pair shown in the recency list
type Discovery struct {
	ID        string    `json:"id"`
	ImageURL  string    `json:"image_url"`
	Fact      string    `json:"fact"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
