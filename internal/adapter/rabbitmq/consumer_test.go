package rabbitmq

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/cart-sync-service/internal/domain"
)

// fakeAcknowledger records the ack/nack decision taken for a delivery.
type fakeAcknowledger struct {
	acks        int
	nacks       int
	lastRequeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error { f.acks++; return nil }

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacks++
	f.lastRequeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error { return errors.New("unexpected reject") }

func delivery(ack amqp.Acknowledger, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(body)}
}

func TestProcessAckDecisions(t *testing.T) {
	tests := []struct {
		name      string
		outcome   domain.DispatchOutcome
		panics    bool
		wantAcks  int
		wantNacks int
	}{
		{
			name:     "success is acked",
			outcome:  domain.DispatchOutcome{EventType: domain.EventProductUpdated, Success: true, AffectedCarts: 1},
			wantAcks: 1,
		},
		{
			name:     "recognized error is acked",
			outcome:  domain.DispatchOutcome{EventType: domain.EventProductDeleted, Err: errors.New("productId missing")},
			wantAcks: 1,
		},
		{
			name:     "panic is acked",
			panics:   true,
			wantAcks: 1,
		},
		{
			name:      "infrastructure failure is nacked without requeue",
			outcome:   domain.DispatchOutcome{EventType: domain.EventProductUpdated, Err: errors.New("connection refused"), Requeue: true},
			wantNacks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAcknowledger{}
			c := &Consumer{Log: zap.NewNop()}

			c.process(context.Background(), delivery(ack, `{}`),
				func(ctx context.Context, raw []byte) domain.DispatchOutcome {
					if tt.panics {
						panic("boom")
					}
					return tt.outcome
				})

			assert.Equal(t, tt.wantAcks, ack.acks)
			assert.Equal(t, tt.wantNacks, ack.nacks)
			if tt.wantNacks > 0 {
				assert.False(t, ack.lastRequeue)
			}
		})
	}
}

func TestProcessDrainsAfterShutdown(t *testing.T) {
	ack := &fakeAcknowledger{}
	c := &Consumer{Log: zap.NewNop()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c.process(ctx, delivery(ack, `{}`),
		func(ctx context.Context, raw []byte) domain.DispatchOutcome {
			// the handler must not observe the shutdown cancellation:
			// a storage call here would otherwise fail and turn a clean
			// shutdown into a rejected message
			require.NoError(t, ctx.Err())
			return domain.DispatchOutcome{EventType: domain.EventProductUpdated, Success: true}
		})

	assert.Equal(t, 1, ack.acks)
	assert.Zero(t, ack.nacks)
}

func TestSafeHandleContainsPanics(t *testing.T) {
	c := &Consumer{Log: zap.NewNop()}

	out := c.safeHandle(context.Background(), []byte(`{}`),
		func(ctx context.Context, raw []byte) domain.DispatchOutcome {
			panic("boom")
		})

	assert.False(t, out.Success)
	assert.Error(t, out.Err)
	// a panic is a handled outcome, not an infrastructure failure
	assert.False(t, out.Requeue)
}

func TestSafeHandlePassesOutcomeThrough(t *testing.T) {
	c := &Consumer{Log: zap.NewNop()}
	want := domain.DispatchOutcome{EventType: domain.EventProductUpdated, Success: true, AffectedCarts: 2}

	out := c.safeHandle(context.Background(), []byte(`{}`),
		func(ctx context.Context, raw []byte) domain.DispatchOutcome {
			return want
		})

	assert.Equal(t, want, out)
}
