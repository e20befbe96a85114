package models

import "time"

// User represents an anonymous identity issued by the service
type User struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// UserProfile holds per-user display settings and favorite tags
type UserProfile struct {
	UID          string   `json:"uid"`
	DisplayName  string   `json:"display_name,omitempty"`
	FavoriteTags []string `json:"favorite_tags"`
}

// Post represents a photo post that disappears once ExpiresAt passes
type Post struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	OwnerName string    `json:"owner_name"`
	Caption   string    `json:"caption"`
	Tags      []string  `json:"tags"`
	MediaRef  string    `json:"media_ref"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FeedItem is a post together with its time-dependent display strings
type FeedItem struct {
	Post      Post   `json:"post"`
	ExpiresIn string `json:"expires_in"`
	Age       string `json:"age"`
}

// Reply is a message sent by a user to the owner of a post
type Reply struct {
	ID          string    `json:"id"`
	PostID      string    `json:"post_id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// Notification tells a post owner about a reply
type Notification struct {
	ID          string    `json:"id"`
	ReplyID     string    `json:"reply_id"`
	PostID      string    `json:"post_id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Message     string    `json:"message"`
	Seen        bool      `json:"seen"`
	CreatedAt   time.Time `json:"created_at"`
}

// Suggestion is a single AI-generated caption, tag or reply text
type Suggestion struct {
	Text string `json:"text"`
}

// ChangeKind identifies what happened to the post collection
type ChangeKind string

const (
	ChangePostCreated ChangeKind = "post_created"
	ChangePostUpdated ChangeKind = "post_updated"
	ChangePostDeleted ChangeKind = "post_deleted"
	ChangeReply       ChangeKind = "reply_created"
)

// Change is published whenever the post collection or a reply thread changes
type Change struct {
	Kind        ChangeKind `json:"kind"`
	PostID      string     `json:"post_id"`
	OwnerID     string     `json:"owner_id"`
	RecipientID string     `json:"recipient_id,omitempty"`
	At          time.Time  `json:"at"`
}
