package socketcan

import (
	sockcan "github.com/brutella/can"
	can "github.com/samsamfire/gocantranslator/pkg/can"
	"github.com/samsamfire/gocantranslator/pkg/can/virtual"
	log "github.com/sirupsen/logrus"
)

// Controller backed by a linux socketcan interface, it uses the implementation
// that can be found here : https://github.com/brutella/can
//
// Module state, channels and acceptance filters are handled in software by
// a [virtual.Controller]. Flushed frames are published on the interface and
// frames read from the interface go through the acceptance filters.

func init() {
	can.RegisterBackend("socketcan", NewSocketcanBackend)
}

type SocketcanBackend struct {
	*virtual.Controller
	bus *sockcan.Bus
}

func NewSocketcanBackend(name string) (can.Backend, error) {
	bus, err := sockcan.NewBusForInterfaceWithName(name)
	if err != nil {
		return nil, err
	}
	return newSocketcanBackend(bus, name), nil
}

// Wire a brutella bus to a software controller and start listening
func newSocketcanBackend(bus *sockcan.Bus, name string) *SocketcanBackend {
	backend := &SocketcanBackend{Controller: virtual.NewController(), bus: bus}
	backend.SetTransmitter(backend.publish)
	// brutella/can defines a "Handle" interface for handling received CAN frames
	bus.Subscribe(backend)
	go func() {
		err := bus.ConnectAndPublish()
		if err != nil {
			log.Errorf("[SOCKETCAN] %v stopped listening : %v", name, err)
		}
	}()
	return backend
}

func (b *SocketcanBackend) publish(frame can.Frame) error {
	return b.bus.Publish(
		sockcan.Frame{
			ID:     frame.ID,
			Length: frame.DLC,
			Flags:  frame.Flags,
			Res0:   0,
			Res1:   0,
			Data:   frame.Data,
		})
}

// brutella/can specific "Handle" implementation
func (b *SocketcanBackend) Handle(frame sockcan.Frame) {
	b.Receive(can.Frame{ID: frame.ID, DLC: frame.Length, Flags: frame.Flags, Data: frame.Data})
}

// Close the socketcan interface
func (b *SocketcanBackend) Close() error {
	return b.bus.Disconnect()
}
