package broadcast

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cyberguard/backend/internal/logger"
)

const sinkWriteTimeout = 5 * time.Second

// forward drains sub until ctx is cancelled or the hub closes the
// subscription, handing each encoded event to send. Failures are logged
// and never stop the loop.
func forward(ctx context.Context, sub *Subscription, send func(context.Context, Event, []byte) error) {
	defer sub.Close()
	log := logger.Component("broadcast").WithField("observer", sub.Name())

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				log.WithError(err).Warn("encode event")
				continue
			}
			sendCtx, cancel := context.WithTimeout(ctx, sinkWriteTimeout)
			err = send(sendCtx, evt, data)
			cancel()
			if err != nil {
				log.WithError(err).WithField("event_id", evt.EventID).Warn("forward event failed")
			}
		}
	}
}
