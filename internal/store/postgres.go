package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps conversation documents as JSONB rows for deployments
// that run the account service on PostgreSQL instead of MongoDB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			email TEXT PRIMARY KEY,
			fullname TEXT NOT NULL DEFAULT '',
			gender TEXT NOT NULL DEFAULT '',
			birthdate DATE,
			join_date TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			messages JSONB NOT NULL,
			date TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_user_date ON conversations (user_id, date DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) FindUser(ctx context.Context, userID string) (UserProfile, bool, error) {
	var (
		fullname, gender string
		birthdate        *time.Time
		joinDate         time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT fullname, gender, birthdate, join_date FROM users WHERE email=$1`,
		userID,
	).Scan(&fullname, &gender, &birthdate, &joinDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserProfile{}, false, nil
	}
	if err != nil {
		return UserProfile{}, false, fmt.Errorf("find user: %w", err)
	}

	profile := UserProfile{Name: fullname, Gender: gender, JoinDate: joinDate}
	if birthdate != nil {
		profile.Age = deriveAge(*birthdate, time.Now().UTC())
	}
	return profile, true, nil
}

func (s *PostgresStore) RecentConversations(ctx context.Context, userID string, limit int) ([]ConversationRecord, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, messages, date
		 FROM conversations WHERE user_id=$1 ORDER BY date DESC LIMIT $2`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var records []ConversationRecord
	for rows.Next() {
		var (
			rec ConversationRecord
			raw []byte
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &raw, &rec.Date); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}
		if err := json.Unmarshal(raw, &rec.Messages); err != nil {
			return nil, fmt.Errorf("decode conversation messages: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation rows: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) InsertConversation(ctx context.Context, record ConversationRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Date.IsZero() {
		record.Date = time.Now().UTC()
	}

	raw, err := json.Marshal(record.Messages)
	if err != nil {
		return "", fmt.Errorf("encode conversation messages: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO conversations (id, user_id, messages, date) VALUES ($1, $2, $3, $4)`,
		record.ID,
		record.UserID,
		raw,
		record.Date,
	)
	if err != nil {
		return "", fmt.Errorf("insert conversation: %w", err)
	}
	return record.ID, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
