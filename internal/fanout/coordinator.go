package fanout

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Coordinator schedules publishes asynchronously after a mutation has
// been accepted by the store. A failed publish is logged and dropped:
// it never surfaces to the caller of the mutation and is never
// retried here.
//
// Dispatches run on context.Background with their own timeout so a
// client disconnect cannot cancel an already-scheduled publish. Wait
// blocks until every scheduled dispatch finished, which is how tests
// observe fan-out deterministically and how shutdown drains in-flight
// publishes.
type Coordinator struct {
	gw      Gateway
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewCoordinator(gw Gateway, logger *zap.Logger) *Coordinator {
	return &Coordinator{gw: gw, logger: logger, timeout: 10 * time.Second}
}

// Publish schedules a publish of event to channel. Returns immediately.
func (c *Coordinator) Publish(channel string, event Event, data any) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := c.gw.Publish(ctx, channel, event, data); err != nil {
			c.logger.Warn("fan-out publish failed",
				zap.String("channel", channel),
				zap.String("event", string(event)),
				zap.Error(err),
			)
		}
	}()
}

// Unsubscribe schedules removal of a member's subscription to channel.
func (c *Coordinator) Unsubscribe(memberID, channel string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := c.gw.Unsubscribe(ctx, memberID, channel); err != nil {
			c.logger.Warn("fan-out unsubscribe failed",
				zap.String("channel", channel),
				zap.String("member_id", memberID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until all scheduled dispatches have completed.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
