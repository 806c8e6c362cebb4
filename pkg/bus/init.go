package bus

import (
	"context"
	"fmt"
	"time"

	cantranslator "github.com/samsamfire/gocantranslator"
	can "github.com/samsamfire/gocantranslator/pkg/can"
	"github.com/samsamfire/gocantranslator/pkg/filter"
	log "github.com/sirupsen/logrus"
)

// Initialize brings the module from power on into normal operation :
//   - switch the module on and enter configuration mode
//   - program bit timing, assign the memory area
//   - configure TX and RX channels, install the acceptance filters
//   - enable RX events, enter normal operation
//   - attach the interrupt handler
//
// Each mode change is awaited for at most ModeTimeout. The outbound queue
// is emptied. Calling Initialize twice is not supported.
func (b *Bus) Initialize(ctx context.Context) error {
	backend := b.backend

	b.mu.Lock()
	b.queue.Reset()
	b.mu.Unlock()

	backend.EnableModule(true)
	if err := b.setMode(ctx, can.ModeConfiguration); err != nil {
		return err
	}

	log.Debugf("[BUS][x%x] setting speed to %v", b.config.Address, b.config.Speed)
	backend.SetSpeed(can.DefaultBitConfig(), b.config.SysFreq, b.config.Speed)

	// Each channel gets its own area of BuffersPerChannel * 16 bytes
	backend.AssignMemoryBuffer(b.buffer)

	// Remote transmit requests are disabled, other nodes can't request
	// us to transmit data.
	backend.ConfigureChannelForTx(TxChannel, b.config.BuffersPerChannel, can.TxRtrDisabled, can.LowMediumPriority)
	backend.ConfigureChannelForRx(RxChannel, b.config.BuffersPerChannel, can.RxFullReceive)

	filter.Configure(backend, b.filters.Provide(b.config.Address))

	backend.EnableChannelEvent(RxChannel, can.RxChannelNotEmpty, true)
	backend.EnableModuleEvent(can.RxEvent, true)

	if err := b.setMode(ctx, can.ModeNormalOperation); err != nil {
		return err
	}

	backend.AttachInterrupt(b.interruptHandler)
	log.Infof("[BUS][x%x] initialized at %v bit/s", b.config.Address, b.config.Speed)
	return nil
}

// Request a mode and wait for the module to report it
func (b *Bus) setMode(ctx context.Context, mode can.Mode) error {
	log.Debugf("[BUS][x%x] entering %v mode", b.config.Address, mode)
	b.backend.SetOperatingMode(mode)
	err := waitForMode(ctx, b.backend, mode, b.config.ModeTimeout, b.config.PollInterval)
	if err != nil {
		log.Errorf("[BUS][x%x] %v", b.config.Address, err)
	}
	return err
}

// Poll the module until it reports the given mode. Fails with
// ErrHardwareTimeout once timeout has elapsed, or with the context error.
func waitForMode(ctx context.Context, backend can.Backend, mode can.Mode, timeout time.Duration, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		current := backend.OperatingMode()
		if current == mode {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w : requested %v mode, module still in %v mode after %v",
				cantranslator.ErrHardwareTimeout, mode, current, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
