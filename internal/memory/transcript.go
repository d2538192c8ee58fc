// Package memory keeps a short rolling transcript per user so follow-up
// messages embed with their recent context. Process-local only; entries
// expire on inactivity and are capped in size, so the map cannot grow
// without bound.
package memory

import (
	"hash/fnv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const lockStripes = 64

// Transcripts is a bounded per-user rolling transcript cache. Writes for
// the same user are serialized so concurrent messages cannot lose updates.
type Transcripts struct {
	cache    *gocache.Cache
	maxBytes int
	locks    [lockStripes]sync.Mutex
}

// NewTranscripts builds a transcript cache. Entries idle longer than ttl
// are evicted; transcripts are trimmed from the front past maxBytes.
func NewTranscripts(ttl time.Duration, maxBytes int) *Transcripts {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if maxBytes <= 0 {
		maxBytes = 8 << 10
	}
	return &Transcripts{
		cache:    gocache.New(ttl, 2*ttl),
		maxBytes: maxBytes,
	}
}

// Get returns the rolling transcript for userID, empty if none.
func (t *Transcripts) Get(userID string) string {
	if v, ok := t.cache.Get(userID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Append records one user/bot exchange, refreshing the entry's TTL.
func (t *Transcripts) Append(userID, userText, botText string) {
	lock := &t.locks[stripe(userID)]
	lock.Lock()
	defer lock.Unlock()

	transcript := t.Get(userID) + "\nUser: " + userText + "\nBot: " + botText
	t.cache.Set(userID, trimFront(transcript, t.maxBytes), gocache.DefaultExpiration)
}

// Forget drops the transcript for userID.
func (t *Transcripts) Forget(userID string) {
	t.cache.Delete(userID)
}

// Len reports the number of users with a live transcript.
func (t *Transcripts) Len() int {
	return t.cache.ItemCount()
}

// trimFront drops the oldest lines until the transcript fits maxBytes.
func trimFront(s string, maxBytes int) string {
	for len(s) > maxBytes {
		cut := strings.IndexByte(s[1:], '\n')
		if cut < 0 {
			return s[len(s)-maxBytes:]
		}
		s = s[cut+1:]
	}
	return s
}

func stripe(userID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return h.Sum32() % lockStripes
}
