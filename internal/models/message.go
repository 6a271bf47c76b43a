package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message kinds.
const (
	KindText  = "text"
	KindFile  = "file"
	KindAudio = "audio"
	KindVideo = "video"
)

// Delivery states, per recipient.
const (
	DeliverySent     = "sent"
	DeliveryReceived = "received"
	DeliveryRead     = "read"
)

// Call outcomes recorded on audio/video messages.
const (
	CallMissed   = "missed"
	CallRejected = "rejected"
	CallAnswered = "answered"
)

// CallRecord captures the outcome of an audio/video call. Present iff the
// message kind is audio or video.
type CallRecord struct {
	Status    string     `bson:"status" json:"status"`
	StartedAt *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
	Duration  int64      `bson:"duration_seconds,omitempty" json:"duration_seconds,omitempty"`
}

// DeliveryStatus tracks per-recipient delivery state.
type DeliveryStatus struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	Status    string    `bson:"status" json:"status"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Message is a persisted chat message. Exactly one of Recipient / GroupID is
// set: Recipient for direct messages, GroupID for group messages. Content is
// required for text messages, FileURL for file messages, Call for audio/video.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Sender    string             `bson:"sender" json:"sender"`
	Recipient string             `bson:"recipient,omitempty" json:"recipient,omitempty"`
	GroupID   string             `bson:"group_id,omitempty" json:"group_id,omitempty"`
	Kind      string             `bson:"kind" json:"kind"`
	Content   string             `bson:"content,omitempty" json:"content,omitempty"`
	FileURL   string             `bson:"file_url,omitempty" json:"file_url,omitempty"`
	Call      *CallRecord        `bson:"call,omitempty" json:"call,omitempty"`
	Delivery  []DeliveryStatus   `bson:"delivery,omitempty" json:"delivery,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// HydratedMessage is a persisted message enriched with sender/recipient
// display projections before being pushed over a live connection.
type HydratedMessage struct {
	Message
	SenderProfile    *UserProfile `json:"sender_profile,omitempty"`
	RecipientProfile *UserProfile `json:"recipient_profile,omitempty"`
	// SenderDisplay carries the recipient's own contact-name override for the
	// sender, when one exists. Falls back to the sender's full name.
	SenderDisplay string `json:"sender_display,omitempty"`
	GroupName     string `json:"group_name,omitempty"`
	GroupImageURL string `json:"group_image_url,omitempty"`
}
