// Package publish reads the previously published document and writes the
// reconciled one back to the blob store.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"time"

	"github.com/rs/zerolog"

	"github.com/law-makers/profilefeed/internal/pipeline"
	"github.com/law-makers/profilefeed/internal/storage"
	"github.com/law-makers/profilefeed/pkg/models"
)

const (
	// ObjectName is the file name of the published document inside its directory.
	ObjectName  = "data.json"
	ContentType = "application/json"
)

// ErrPriorUnreadable marks a prior document that exists but could not be read
// back as a payload.
var ErrPriorUnreadable = errors.New("prior payload unreadable")

// Receipt describes a completed publish.
type Receipt struct {
	Key       string
	Location  string
	ETag      string
	Bytes     int
	Published time.Time
}

// Publisher owns the single document key.
type Publisher struct {
	store  storage.BlobStore
	key    string
	logger zerolog.Logger
}

// New creates a Publisher writing to "<dir>/data.json" in store.
func New(store storage.BlobStore, dir string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		store:  store,
		key:    Key(dir),
		logger: logger,
	}
}

// Key returns the object key for dir.
func Key(dir string) string {
	return path.Join(dir, ObjectName)
}

// Key returns the object key this publisher writes.
func (p *Publisher) Key() string {
	return p.key
}

// FetchPrior loads the last published payload.
//
// A missing object is a first run and a malformed one is treated the same
// way: both yield an empty payload so reconciliation can proceed. Any other
// storage failure is returned, since publishing without the prior would
// replace good collections with empty ones.
func (p *Publisher) FetchPrior(ctx context.Context) (*models.Payload, error) {
	logger := p.logger.With().Str("location", p.store.Location(p.key)).Logger()

	data, err := p.store.Get(ctx, p.key)
	if storage.IsNotFound(err) {
		logger.Warn().Msg("No prior payload found, reconciling against an empty one")
		return &models.Payload{}, nil
	}
	if err != nil {
		return nil, err
	}

	prior, err := Decode(data)
	if err != nil {
		logger.Warn().Err(err).Int("bytes", len(data)).Msg("Prior payload is malformed, reconciling against an empty one")
		return &models.Payload{}, nil
	}

	logger.Debug().Int("bytes", len(data)).Msg("Loaded prior payload")
	return prior, nil
}

// Publish serializes payload and overwrites the document.
func (p *Publisher) Publish(ctx context.Context, payload *models.Payload) (Receipt, error) {
	data, err := Encode(payload)
	if err != nil {
		return Receipt{}, pipeline.NewError(pipeline.ErrCodePublish, "failed to encode payload", err)
	}

	location := p.store.Location(p.key)
	etag, err := p.store.Put(ctx, p.key, data, ContentType)
	if err != nil {
		return Receipt{}, pipeline.NewError(pipeline.ErrCodePublish, "failed to write payload", err).WithURL(location)
	}

	receipt := Receipt{
		Key:       p.key,
		Location:  location,
		ETag:      etag,
		Bytes:     len(data),
		Published: time.Now().UTC(),
	}

	p.logger.Info().
		Str("location", location).
		Str("etag", etag).
		Int("bytes", len(data)).
		Msg("Payload published")

	return receipt, nil
}

// Encode renders payload as compact JSON.
func Encode(payload *models.Payload) ([]byte, error) {
	if payload == nil {
		payload = &models.Payload{}
	}
	return json.Marshal(payload)
}

// Decode parses a published document. Anything other than a JSON object is
// rejected.
func Decode(data []byte) (*models.Payload, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Join(ErrPriorUnreadable, err)
	}
	if raw == nil {
		return nil, errors.Join(ErrPriorUnreadable, errors.New("document is null"))
	}

	var payload models.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.Join(ErrPriorUnreadable, err)
	}
	return &payload, nil
}
