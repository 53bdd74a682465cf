package status

import (
	"context"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/infrastructure/metrics"
)

// Observe mirrors every published status into the queue gauges and the log
// until ctx is done or the publisher is closed.
func Observe(ctx context.Context, p *Publisher) {
	updates, unsubscribe := p.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-updates:
			if !ok {
				return
			}
			metrics.ObserveStatus(s)
			zlog.Logger.Info().
				Int("queue_position", s.QueuePosition).
				Int("wait_time_seconds", s.WaitTimeSeconds).
				Msg("horde queue status")
		}
	}
}
