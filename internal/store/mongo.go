package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	collectionUsers         = "users"
	collectionConversations = "conversations"
)

// MongoStore reads and appends documents in the account service's MongoDB.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	dbName := databaseNameFromURI(uri)
	if dbName == "" {
		dbName = "solace"
	}

	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

type mongoUserDoc struct {
	Fullname  string    `bson:"fullname"`
	Gender    string    `bson:"gender"`
	Birthdate string    `bson:"birthdate"`
	JoinDate  time.Time `bson:"joinDate"`
}

// FindUser looks up a user by identifier. The account service keys users by
// email, so userID is the email address.
func (s *MongoStore) FindUser(ctx context.Context, userID string) (UserProfile, bool, error) {
	var doc mongoUserDoc
	err := s.db.Collection(collectionUsers).
		FindOne(ctx, bson.M{"email": userID}).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return UserProfile{}, false, nil
	}
	if err != nil {
		return UserProfile{}, false, fmt.Errorf("find user: %w", err)
	}

	return UserProfile{
		Name:     doc.Fullname,
		Gender:   doc.Gender,
		Age:      deriveAge(parseBirthdate(doc.Birthdate), time.Now().UTC()),
		JoinDate: doc.JoinDate,
	}, true, nil
}

func (s *MongoStore) RecentConversations(ctx context.Context, userID string, limit int) ([]ConversationRecord, error) {
	if limit <= 0 {
		limit = 5
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.db.Collection(collectionConversations).
		Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find conversations: %w", err)
	}
	defer cur.Close(ctx)

	var records []ConversationRecord
	for cur.Next(ctx) {
		var rec ConversationRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode conversation: %w", err)
		}
		records = append(records, rec)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return records, nil
}

func (s *MongoStore) InsertConversation(ctx context.Context, record ConversationRecord) (string, error) {
	if record.Date.IsZero() {
		record.Date = time.Now().UTC()
	}

	res, err := s.db.Collection(collectionConversations).InsertOne(ctx, record)
	if err != nil {
		return "", fmt.Errorf("insert conversation: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprintf("%v", res.InsertedID), nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// databaseNameFromURI extracts the path segment of a mongodb:// URI.
func databaseNameFromURI(uri string) string {
	rest := uri
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[i+1:]
	} else {
		return ""
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest)
}
