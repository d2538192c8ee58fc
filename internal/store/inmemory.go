package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process store for local/dev use and tests.
type InMemoryStore struct {
	mu            sync.RWMutex
	users         map[string]userDoc
	conversations map[string][]ConversationRecord
}

type userDoc struct {
	Fullname  string
	Gender    string
	Birthdate time.Time
	JoinDate  time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:         make(map[string]userDoc),
		conversations: make(map[string][]ConversationRecord),
	}
}

// PutUser seeds a user document. Dev/test helper; the real account service
// owns user writes.
func (s *InMemoryStore) PutUser(userID, fullname, gender string, birthdate, joinDate time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = userDoc{
		Fullname:  fullname,
		Gender:    gender,
		Birthdate: birthdate,
		JoinDate:  joinDate,
	}
}

func (s *InMemoryStore) FindUser(_ context.Context, userID string) (UserProfile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.users[userID]
	if !ok {
		return UserProfile{}, false, nil
	}
	return UserProfile{
		Name:     doc.Fullname,
		Gender:   doc.Gender,
		Age:      deriveAge(doc.Birthdate, time.Now().UTC()),
		JoinDate: doc.JoinDate,
	}, true, nil
}

func (s *InMemoryStore) RecentConversations(_ context.Context, userID string, limit int) ([]ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	arr := s.conversations[userID]
	if len(arr) == 0 {
		return nil, nil
	}

	out := make([]ConversationRecord, len(arr))
	copy(out, arr)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) InsertConversation(_ context.Context, record ConversationRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Date.IsZero() {
		record.Date = time.Now().UTC()
	}
	s.conversations[record.UserID] = append(s.conversations[record.UserID], record)
	return record.ID, nil
}

// ConversationCount reports stored records for a user. Test helper.
func (s *InMemoryStore) ConversationCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations[userID])
}

func (s *InMemoryStore) Close() error { return nil }
