package device

import (
	"context"
	"encoding/hex"

	"github.com/harrylevesque/wssgateway/internal/model"
)

// Tick runs the ~2s periodic flush described in §4.4: if any activity has
// occurred since the last tick, persist it and emit a telemetry "tick"
// event, then zero the local counters. A quiet period is a no-op.
func (s *Session) Tick(ctx context.Context) error {
	if !s.lastMsg && s.stats.IsZero() {
		return nil
	}

	if s.store != nil {
		deltas := s.stats.AsMap()
		deployedHash := s.deployState.DeployedHash()
		err := s.store.UpdateDevice(ctx, s.Identity.PartitionKey, s.Identity.RowKey, func(r *model.Record) {
			r.LastAct = model.NowMillis()
			if r.Stats == nil {
				r.Stats = map[string]int{}
			}
			for k, v := range deltas {
				r.Stats[k] += v
			}
			if deployedHash != nil {
				r.DeployedHash = hex.EncodeToString(deployedHash[:])
			}
		})
		if err != nil {
			return err
		}
	}

	if err := s.publish(ctx, "tick", tickPayload{Stats: s.stats.AsMap()}); err != nil {
		return err
	}
	if s.metrics != nil {
		measurements := map[string]float64{
			"c2d":     float64(s.stats.C2D),
			"c2dResp": float64(s.stats.C2DResp),
			"d2c":     float64(s.stats.D2C),
		}
		s.metrics.Track("device_tick", nil, measurements, s.metricsTags())
	}

	s.stats = model.Stats{}
	s.lastMsg = false
	return nil
}
