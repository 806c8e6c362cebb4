package can

import (
	"fmt"
	"sort"

	cantranslator "github.com/samsamfire/gocantranslator"
)

type NewBackendFunc func(channel string) (Backend, error)

var backendRegistry = make(map[string]NewBackendFunc)

// Register a new backend type
// This should be called inside an init() function of the backend package
func RegisterBackend(backendType string, newBackend NewBackendFunc) {
	backendRegistry[backendType] = newBackend
}

// Create a backend of the given type on the given channel
// e.g. NewBackend("socketcan", "can0")
func NewBackend(backendType string, channel string) (Backend, error) {
	createBackend, ok := backendRegistry[backendType]
	if !ok {
		return nil, fmt.Errorf("%w : %v", cantranslator.ErrUnsupportedBackend, backendType)
	}
	return createBackend(channel)
}

// Names of the registered backends
func AvailableBackends() []string {
	names := make([]string, 0, len(backendRegistry))
	for name := range backendRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
