package firestore

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/justiceconnect/internal/domain"
)

const DefaultCollection = "kv_store"

// Store is a HistoryStore backed by a single Firestore collection.
// Each key is one document holding the key and its raw value.
type Store struct {
	client     *firestore.Client
	collection string
}

var _ domain.HistoryStore = (*Store)(nil)

// NewStore creates a Firestore store for the given project.
func NewStore(ctx context.Context, projectID, collection string) (*Store, error) {
	if projectID == "" {
		return nil, &domain.ConfigurationError{Setting: "firestore.project", Message: "projectID is required for Firestore store"}
	}
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, collection: collection}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) col() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

// Document IDs may not contain '/'.
func docID(key string) string {
	return url.PathEscape(key)
}

// prefixBound returns the exclusive upper bound of a range query
// that matches every string starting with prefix.
func prefixBound(prefix string) string {
	return prefix + "\uf8ff"
}

type kvDoc struct {
	Key       string    `firestore:"key"`
	Value     []byte    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// ─────────────────────────────────────────
// HistoryStore implementation
// ─────────────────────────────────────────

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	doc := kvDoc{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	if _, err := s.col().Doc(docID(key)).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore Set: %w", err)
	}
	return nil
}

func (s *Store) GetByPrefix(ctx context.Context, prefix string) ([]domain.Entry, error) {
	q := s.col().
		Where("key", ">=", prefix).
		Where("key", "<", prefixBound(prefix)).
		OrderBy("key", firestore.Asc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []domain.Entry
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore GetByPrefix: %w", err)
		}

		var doc kvDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode kvDoc: %w", err)
		}
		out = append(out, domain.Entry{Key: doc.Key, Value: doc.Value})
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.col().Doc(docID(key)).Delete(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return fmt.Errorf("firestore Delete: %w", err)
	}
	return nil
}
