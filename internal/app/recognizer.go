package service

import (
	"bytes"
	"context"

	"github.com/okian/elrobot/internal/adapters/repository"
	"github.com/okian/elrobot/internal/domain/model"
	"github.com/okian/elrobot/internal/domain/policy"
	"github.com/okian/elrobot/pkg/logger"
	"github.com/okian/elrobot/pkg/metrics"
)

// identity is the last recognition result of a face slot.
type identity struct {
	crop    []byte
	vectors uint64
	name    string
}

// recognizeTick decides for every known face slot. With recognition on, a
// slot whose crop or vector set changed since its last identification is
// identified again and the label is published. The store is only read; a
// published label comes back through the label subscription.
func (s *Service) recognizeTick(ctx context.Context) {
	snap := s.store.Snapshot(ctx)
	for _, key := range snap.Faces() {
		label := snap.LabelName(key)
		if s.recognizer != nil {
			if crop, ok := snap.Crops[key]; ok {
				label = s.identify(ctx, key, crop.Data, snap)
			}
		}

		in := policy.Input{Key: key, Label: label, Samples: snap.Samples[key]}
		if b, ok := snap.Box(key); ok {
			in.Box = &b
		}
		s.emit(ctx, s.engine.Decide(in))
	}
}

func (s *Service) identify(ctx context.Context, key model.FaceKey, crop []byte, snap *repository.Snapshot) string {
	if prev, ok := s.identities[key]; ok && prev.vectors == snap.VectorGeneration && bytes.Equal(prev.crop, crop) {
		return prev.name
	}

	res, err := s.recognizer.Identify(ctx, crop, snap.Vectors)
	if err != nil {
		metrics.RecordRecognition("error")
		s.logger.Warn(ctx, "recognition failed",
			logger.String("camera", key.Camera),
			logger.Int("index", key.Index),
			logger.Error(err))
		if prev, ok := s.identities[key]; ok {
			return prev.name
		}
		return snap.LabelName(key)
	}
	metrics.RecordRecognition(string(res.Outcome))
	s.identities[key] = identity{crop: crop, vectors: snap.VectorGeneration, name: res.Name}

	s.logger.Debug(ctx, "face identified",
		logger.String("camera", key.Camera),
		logger.Int("index", key.Index),
		logger.String("name", res.Name),
		logger.Int("votes", res.Votes))

	if s.cfg.Recognition.PublishLabels {
		s.publish(ctx, "label", s.keys.Label(key), []byte(res.Name))
	}
	return res.Name
}
