package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskboard/authd/internal/core/domain"
)

const accountsCollection = "accounts"

// CredentialStore persists accounts in MongoDB. Identifier uniqueness is
// enforced by a unique index, see EnsureIndexes.
type CredentialStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewCredentialStore(db *mongo.Database) *CredentialStore {
	return &CredentialStore{coll: db.Collection(accountsCollection), now: time.Now}
}

type mongoAccount struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Identifier string             `bson:"identifier"`
	SecretHash string             `bson:"secret_hash"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (a mongoAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:         a.ID.Hex(),
		Identifier: a.Identifier,
		SecretHash: a.SecretHash,
		CreatedAt:  a.CreatedAt.UTC(),
	}
}

// EnsureIndexes creates the unique identifier index. It is idempotent.
func (s *CredentialStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "identifier", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("identifier_unique"),
	})
	if err != nil {
		return fmt.Errorf("create accounts index: %w", err)
	}
	return nil
}

func (s *CredentialStore) Create(ctx context.Context, identifier, secretHash string) (*domain.Account, error) {
	if identifier == "" {
		return nil, domain.ErrInvalidIdentifier
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoAccount{
		ID:         primitive.NewObjectID(),
		Identifier: identifier,
		SecretHash: secretHash,
		CreatedAt:  s.now().UTC().Truncate(time.Millisecond),
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateIdentifier
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *CredentialStore) FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoAccount
	if err := s.coll.FindOne(ctx, bson.M{"identifier": identifier}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}
