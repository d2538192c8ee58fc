// Package store is the client for the external document store that owns
// user accounts and persisted conversations. The core only reads profiles
// and recent history and appends conversation records; all other CRUD
// belongs to the account service.
package store

import (
	"context"
	"time"
)

const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// UserProfile is the read-only slice of a user document the prompt builder
// needs. Age is derived from the stored birthdate at read time.
type UserProfile struct {
	Name     string    `json:"name"`
	Gender   string    `json:"gender"`
	Age      int       `json:"age"`
	JoinDate time.Time `json:"join_date"`
}

// Turn is a single message inside a conversation record.
type Turn struct {
	Sender    string    `json:"sender" bson:"sender"`
	Text      string    `json:"text" bson:"text"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// ConversationRecord is one handled exchange, append-only from this core.
type ConversationRecord struct {
	ID       string    `json:"id,omitempty" bson:"-"`
	UserID   string    `json:"user_id" bson:"userId"`
	Messages []Turn    `json:"messages" bson:"messages"`
	Date     time.Time `json:"date" bson:"date"`
}

// MoodSample is a mood tracker reading. Owned and fetched by the caller;
// the core only analyzes already-loaded samples.
type MoodSample struct {
	UserID string    `json:"user_id" bson:"userId"`
	Date   time.Time `json:"date" bson:"date"`
	Mood   float64   `json:"mood" bson:"mood"`
}

// Store reads profiles and recent history and appends conversations.
type Store interface {
	FindUser(ctx context.Context, userID string) (UserProfile, bool, error)
	RecentConversations(ctx context.Context, userID string, limit int) ([]ConversationRecord, error)
	InsertConversation(ctx context.Context, record ConversationRecord) (string, error)
	Close() error
}

// deriveAge computes full years between birthdate and now.
func deriveAge(birthdate time.Time, now time.Time) int {
	if birthdate.IsZero() || birthdate.After(now) {
		return 0
	}
	age := now.Year() - birthdate.Year()
	if now.Month() < birthdate.Month() ||
		(now.Month() == birthdate.Month() && now.Day() < birthdate.Day()) {
		age--
	}
	return age
}

// parseBirthdate accepts the ISO layouts the account service writes.
func parseBirthdate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
