package service

import (
	"context"

	"github.com/okian/elrobot/internal/adapters/codec"
	"github.com/okian/elrobot/internal/domain/policy"
	"github.com/okian/elrobot/pkg/logger"
	"github.com/okian/elrobot/pkg/metrics"
)

// detectTick runs detection on the latest frame of every camera, publishes
// the crops and boxes it finds and commands the robot for each face. The
// decision uses the box found in this tick; the label is whatever the store
// holds for that slot, possibly from an older cycle.
func (s *Service) detectTick(ctx context.Context) {
	snap := s.store.Snapshot(ctx)
	for _, cam := range snap.Cameras() {
		faces, err := s.adapter.Process(ctx, snap.Frames[cam])
		if err != nil {
			metrics.RecordFrameSkipped()
			s.logger.Warn(ctx, "skipping camera", logger.String("camera", cam), logger.Error(err))
			continue
		}

		for _, f := range faces {
			key := f.Box.Key()
			s.publish(ctx, "crop", s.keys.Crop(key), f.Crop)

			payload, err := codec.EncodeBox(f.Box)
			if err != nil {
				s.logger.Warn(ctx, "encoding box failed", logger.String("camera", cam), logger.Error(err))
			} else {
				s.publish(ctx, "box", s.keys.Box(key), payload)
			}

			box := f.Box
			s.emit(ctx, s.engine.Decide(policy.Input{
				Key:   key,
				Label: snap.LabelName(key),
				Box:   &box,
			}))
		}
	}
}
