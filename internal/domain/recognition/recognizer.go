package recognition

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/okian/elrobot/internal/domain/model"
	"github.com/okian/elrobot/pkg/logger"
	"github.com/patrickmn/go-cache"
)

// Default recognizer configuration constants.
const (
	defaultUnknownName = "Unknown"
	defaultCacheTTL    = 30 * time.Second
)

// Encoder computes appearance signatures of the faces found in an encoded
// image. The first signature belongs to the primary face.
type Encoder interface {
	Encode(ctx context.Context, img []byte) ([][]float64, error)
}

// Outcome classifies a recognition attempt.
type Outcome string

// Recognition outcomes.
const (
	OutcomeMatched     Outcome = "matched"
	OutcomeUnknown     Outcome = "unknown"
	OutcomeNoSignature Outcome = "no_signature"
)

// Result is the identity guess for one crop.
type Result struct {
	Name    string
	Outcome Outcome
	Votes   int
}

// Recognizer matches crops against known signatures.
type Recognizer struct {
	encoder   Encoder
	tolerance float64
	unknown   string
	cacheTTL  time.Duration
	cache     *cache.Cache

	logger logger.Logger
}

// NewRecognizer creates a recognizer backed by encoder.
func NewRecognizer(encoder Encoder, opts ...Option) *Recognizer {
	r := &Recognizer{
		encoder:   encoder,
		tolerance: DefaultTolerance,
		unknown:   defaultUnknownName,
		cacheTTL:  defaultCacheTTL,
		logger:    logger.Get().Named("recognition"),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.cacheTTL > 0 {
		r.cache = cache.New(r.cacheTTL, 2*r.cacheTTL)
	}

	return r
}

// Unknown returns the label used for faces nobody matches.
func (r *Recognizer) Unknown() string { return r.unknown }

// Identify guesses who is on the crop. Finding no face or no match is not an
// error.
func (r *Recognizer) Identify(ctx context.Context, crop []byte, known []model.RecognitionEntry) (Result, error) {
	probe, err := r.signature(ctx, crop)
	if err != nil {
		return Result{Name: r.unknown, Outcome: OutcomeUnknown}, err
	}
	if probe == nil {
		return Result{Name: r.unknown, Outcome: OutcomeNoSignature}, nil
	}

	name, votes, ok := Tally(known, Matches(known, probe, r.tolerance))
	if !ok {
		return Result{Name: r.unknown, Outcome: OutcomeUnknown}, nil
	}
	return Result{Name: name, Outcome: OutcomeMatched, Votes: votes}, nil
}

// signature returns the primary signature of the crop, or nil when the
// encoder found no face.
func (r *Recognizer) signature(ctx context.Context, crop []byte) ([]float64, error) {
	if r.encoder == nil {
		return nil, ErrNoEncoder
	}

	var key string
	if r.cache != nil {
		sum := sha256.Sum256(crop)
		key = hex.EncodeToString(sum[:])
		if v, ok := r.cache.Get(key); ok {
			return v.([]float64), nil
		}
	}

	encodings, err := r.encoder.Encode(ctx, crop)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	var probe []float64
	if len(encodings) > 0 {
		probe = encodings[0]
	}
	if r.cache != nil {
		r.cache.SetDefault(key, probe)
	}
	return probe, nil
}
