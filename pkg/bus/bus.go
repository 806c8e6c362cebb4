// Package bus owns a CAN module : it brings it into normal operation and
// transmits queued messages through it.
//
// A [Bus] is driven by a single execution context. Enqueue may be called
// from other goroutines, everything else is expected to run from the
// control loop that owns the bus.
package bus

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	cantranslator "github.com/samsamfire/gocantranslator"
	"github.com/samsamfire/gocantranslator/internal/fifo"
	can "github.com/samsamfire/gocantranslator/pkg/can"
	"github.com/samsamfire/gocantranslator/pkg/filter"
)

// Channel usage of the module
const (
	TxChannel = can.Channel0
	RxChannel = can.Channel1
)

const (
	DefaultSpeed             uint32 = 500_000
	DefaultSysFreq           uint32 = 80_000_000
	DefaultChannels                 = 2
	DefaultBuffersPerChannel        = 8
	DefaultQueueSize                = 32
	DefaultModeTimeout              = 100 * time.Millisecond
	DefaultPollInterval             = 1 * time.Millisecond
	// Limit of message buffers per channel of the module
	MaxBuffersPerChannel = 32
)

// Layout of the memory area handed to the module
type Geometry struct {
	Channels          int
	BuffersPerChannel int
}

// Size in bytes of the memory area
func (g Geometry) MemorySize() int {
	return g.Channels * g.BuffersPerChannel * can.BytesPerBuffer
}

type Config struct {
	Speed   uint32 // bit/s
	Address uint32 // used to select the acceptance filters
	SysFreq uint32 // clock of the bit timing generator
	Geometry
	QueueSize    int           // outbound messages that can wait for transmission
	ModeTimeout  time.Duration // bound of every mode transition
	PollInterval time.Duration // delay between two mode polls
}

func DefaultConfig() Config {
	return Config{
		Speed:   DefaultSpeed,
		SysFreq: DefaultSysFreq,
		Geometry: Geometry{
			Channels:          DefaultChannels,
			BuffersPerChannel: DefaultBuffersPerChannel,
		},
		QueueSize:    DefaultQueueSize,
		ModeTimeout:  DefaultModeTimeout,
		PollInterval: DefaultPollInterval,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Speed == 0:
		return fmt.Errorf("%w : speed must be positive", cantranslator.ErrIllegalArgument)
	case c.SysFreq == 0:
		return fmt.Errorf("%w : system frequency must be positive", cantranslator.ErrIllegalArgument)
	case c.Channels < 2:
		return fmt.Errorf("%w : need at least 2 channels, got %v", cantranslator.ErrIllegalArgument, c.Channels)
	case c.BuffersPerChannel < 1 || c.BuffersPerChannel > MaxBuffersPerChannel:
		return fmt.Errorf("%w : buffers per channel must be in [1,%v], got %v",
			cantranslator.ErrIllegalArgument, MaxBuffersPerChannel, c.BuffersPerChannel)
	case c.QueueSize < 1:
		return fmt.Errorf("%w : queue size must be positive", cantranslator.ErrIllegalArgument)
	case c.ModeTimeout <= 0 || c.PollInterval <= 0:
		return fmt.Errorf("%w : mode timeout and poll interval must be positive", cantranslator.ErrIllegalArgument)
	}
	return nil
}

// An outbound message, payload is opaque
type Message struct {
	Destination uint32 // standard identifier
	Data        [can.PayloadSize]byte
}

func NewMessage(destination uint32, data [can.PayloadSize]byte) Message {
	return Message{Destination: destination, Data: data}
}

// Transmit queue counters
type Stats struct {
	Sent    uint64
	Dropped uint64
}

// Bus owns one CAN module through its backend, the memory area
// assigned to the module and the outbound queue.
type Bus struct {
	backend          can.Backend
	config           Config
	buffer           []byte
	filters          filter.Provider
	interruptHandler can.InterruptHandler
	mu               sync.Mutex
	queue            *fifo.Fifo[Message]
	sent             atomic.Uint64
	dropped          atomic.Uint64
}

// Create a new bus. Filters are requested from the provider when the bus
// is initialized, handler is attached to the module last.
func New(backend can.Backend, config Config, filters filter.Provider, handler can.InterruptHandler) (*Bus, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w : no backend", cantranslator.ErrIllegalArgument)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if filters == nil {
		filters = filter.Static(nil)
	}
	return &Bus{
		backend:          backend,
		config:           config,
		buffer:           make([]byte, config.MemorySize()),
		filters:          filters,
		interruptHandler: handler,
		queue:            fifo.NewFifo[Message](config.QueueSize),
	}, nil
}

func (b *Bus) Backend() can.Backend {
	return b.backend
}

func (b *Bus) Config() Config {
	return b.config
}

// Size of the memory area assigned to the module
func (b *Bus) MemorySize() int {
	return len(b.buffer)
}

func (b *Bus) Stats() Stats {
	return Stats{Sent: b.sent.Load(), Dropped: b.dropped.Load()}
}
