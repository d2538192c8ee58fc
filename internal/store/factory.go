package store

import (
	"context"
	"strings"
)

// NewStore selects the document store backend: MongoDB when a URI is
// configured, PostgreSQL when a database URL is, otherwise in-memory.
func NewStore(ctx context.Context, mongoURI, databaseURL string) (Store, error) {
	if strings.TrimSpace(mongoURI) != "" {
		return NewMongoStore(ctx, mongoURI)
	}
	if strings.TrimSpace(databaseURL) != "" {
		return NewPostgresStore(ctx, databaseURL)
	}
	return NewInMemoryStore(), nil
}
