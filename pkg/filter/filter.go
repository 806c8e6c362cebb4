package filter

import (
	can "github.com/samsamfire/gocantranslator/pkg/can"
	log "github.com/sirupsen/logrus"
)

// Acceptance filter to install on a receive channel
type Descriptor struct {
	Number     can.Filter
	Value      uint32 // standard identifier to accept
	MaskNumber can.FilterMask
	Channel    can.Channel
}

// A Provider returns the filters to install for a bus address.
// It is called once per bus initialization.
type Provider interface {
	Provide(address uint32) []Descriptor
}

// ProviderFunc adapts a function to the [Provider] interface
type ProviderFunc func(address uint32) []Descriptor

func (f ProviderFunc) Provide(address uint32) []Descriptor {
	return f(address)
}

// Static provides the same filters regardless of the bus address
type Static []Descriptor

func (s Static) Provide(address uint32) []Descriptor {
	return s
}

// Configure programs the filters in the given order. For each filter
// the acceptance value is programmed as a standard identifier, the filter
// is linked with its mask to its channel and then enabled.
// Filter numbers are not checked for duplicates.
func Configure(backend can.Backend, filters []Descriptor) {
	log.Debugf("[FILTER] configuring %d filters...", len(filters))
	for _, f := range filters {
		backend.ConfigureFilter(f.Number, f.Value, can.SID)
		backend.LinkFilterToChannel(f.Number, f.MaskNumber, f.Channel)
		backend.EnableFilter(f.Number, true)
	}
	log.Debug("[FILTER] done")
}
