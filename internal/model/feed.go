package model

import "time"

// Post is a text entry in the public feed.
type Post struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Caption   *string   `json:"caption"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePostRequest represents a POST /api/v1/feeds body.
type CreatePostRequest struct {
	Caption string `json:"caption"`
	Text    string `json:"text"`
}

// FeedResponse is one page of the feed, newest first.
type FeedResponse struct {
	Posts  []Post `json:"posts"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
