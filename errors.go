// Package cantranslator brings a CAN controller from power-on into normal
// operation and drains an outbound message queue onto it.
//
// Hardware is reached only through the [can.Backend] interface of package
// pkg/can, so the same code drives a real controller, a SocketCAN interface
// or the in-memory virtual controller used by the tests.
package cantranslator

import "errors"

var (
	ErrIllegalArgument    = errors.New("error in function arguments")
	ErrHardwareTimeout    = errors.New("hardware did not acknowledge in time")
	ErrQueueFull          = errors.New("outbound queue is full")
	ErrTxOverflow         = errors.New("no transmit buffer available, buffer full")
	ErrUnsupportedBackend = errors.New("unsupported backend")
)
