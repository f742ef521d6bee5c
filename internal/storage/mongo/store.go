// Package mongostore keeps the counter Record in a single MongoDB document,
// one integer field per counter name.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/BaraaAbuhalima/counter-app/internal/counter"
)

const (
	DefaultDatabase   = "counter_app"
	DefaultCollection = "counters"
	DefaultDocumentID = "counters"
)

// Options configures the connection and the document location.
type Options struct {
	URI        string
	Database   string
	Collection string
	DocumentID string
	// ConnectTimeout bounds Connect and the initial Ping.
	ConnectTimeout time.Duration
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	db     string
	id     string
}

var _ counter.Backend = (*Store)(nil)

// Open connects to MongoDB and verifies the connection with a Ping.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.URI == "" {
		return nil, errors.New("mongo: URI is not set")
	}
	if opts.Database == "" {
		opts.Database = DefaultDatabase
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	if opts.DocumentID == "" {
		opts.DocumentID = DefaultDocumentID
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}

	cctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	client, err := mongo.Connect(cctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return &Store{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
		db:     opts.Database,
		id:     opts.DocumentID,
	}, nil
}

// Load reads the counters document. A missing document reads as all zeros.
func (s *Store) Load(ctx context.Context) (counter.Record, error) {
	var doc bson.M
	err := s.coll.FindOne(ctx, bson.M{"_id": s.id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return counter.NewRecord(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find: %w", err)
	}
	return recordFromDoc(doc)
}

// Save upserts the counters document.
func (s *Store) Save(ctx context.Context, r counter.Record) error {
	set := bson.M{}
	for name, v := range r {
		set[name] = v
	}
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": s.id},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo: update: %w", err)
	}
	return nil
}

// Location identifies the document: mongodb://<db>/<collection>/<id>.
func (s *Store) Location() string {
	return fmt.Sprintf("mongodb://%s/%s/%s", s.db, s.coll.Name(), s.id)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// recordFromDoc converts document fields to counters. Numeric fields may be
// stored as int32, int64 or double depending on the writer.
func recordFromDoc(doc bson.M) (counter.Record, error) {
	rec := counter.NewRecord()
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		n, ok := toInt64(v)
		if !ok {
			return nil, fmt.Errorf("mongo: field %q has non-numeric type %T", k, v)
		}
		rec[k] = n
	}
	return rec, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
