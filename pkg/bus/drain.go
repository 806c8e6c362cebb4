package bus

import (
	"context"
	"fmt"
	"time"

	cantranslator "github.com/samsamfire/gocantranslator"
	can "github.com/samsamfire/gocantranslator/pkg/can"
	log "github.com/sirupsen/logrus"
)

// Enqueue a message for transmission by the next Drain
func (b *Bus) Enqueue(message Message) error {
	if message.Destination > can.CanSffMask {
		return fmt.Errorf("%w : destination 0x%X is not a standard identifier",
			cantranslator.ErrIllegalArgument, message.Destination)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.queue.Push(message) {
		return cantranslator.ErrQueueFull
	}
	return nil
}

// Number of messages waiting for transmission
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.GetOccupied()
}

func (b *Bus) pop() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.Pop()
}

// Drain sends queued messages until the queue is empty.
// A message is removed from the queue before it is sent, if no transmit
// buffer is available it is dropped and never retried.
func (b *Bus) Drain() {
	for {
		message, ok := b.pop()
		if !ok {
			return
		}
		if b.Send(message) {
			b.sent.Add(1)
			continue
		}
		b.dropped.Add(1)
		log.WithError(cantranslator.ErrTxOverflow).Debugf("[BUS][x%x] dropped message to 0x%X", b.config.Address, message.Destination)
	}
}

// Run drains the queue every period until the context is done
func (b *Bus) Run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	log.Infof("[BUS][x%x] starting transmit queue processing", b.config.Address)
	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			log.Infof("[BUS][x%x] exited transmit queue processing", b.config.Address)
			return
		case <-ticker.C:
			b.Drain()
		}
	}
}
