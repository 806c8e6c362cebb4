// Package config loads bus configurations and acceptance filters
// from an INI file.
//
//	[bus.can1]
//	speed         = 500000
//	address       = 0x101
//	sys_freq      = 80000000
//	channels      = 2
//	buffers       = 8
//	queue         = 32
//	mode_timeout  = 100ms
//	poll_interval = 1ms
//
//	[filters.0x101.0]
//	number  = 0
//	value   = 0x100
//	mask    = 0
//	channel = 1
//
// Filters of a bus are the direct child sections of "filters.<address>",
// in file order, deeper sections are ignored. Missing bus keys take the defaults of [bus.DefaultConfig].
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	cantranslator "github.com/samsamfire/gocantranslator"
	"github.com/samsamfire/gocantranslator/pkg/bus"
	can "github.com/samsamfire/gocantranslator/pkg/can"
	"github.com/samsamfire/gocantranslator/pkg/filter"
	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

const (
	busPrefix    = "bus."
	filterPrefix = "filters."
)

type File struct {
	file *ini.File
}

// Load a configuration, source can be a path or []byte
// or anything accepted by ini.Load
func Load(source any) (*File, error) {
	file, err := ini.Load(source)
	if err != nil {
		return nil, err
	}
	return &File{file: file}, nil
}

// Names of the buses present in the file
func (f *File) Buses() []string {
	names := []string{}
	for _, section := range f.file.Sections() {
		name := section.Name()
		if strings.HasPrefix(name, busPrefix) && !strings.Contains(name[len(busPrefix):], ".") {
			names = append(names, name[len(busPrefix):])
		}
	}
	return names
}

func illegal(section *ini.Section, key string, err error) error {
	return fmt.Errorf("%w : [%v] %v : %v", cantranslator.ErrIllegalArgument, section.Name(), key, err)
}

func parseUint(section *ini.Section, key string, bitSize int, defaultValue uint64) (uint64, error) {
	if !section.HasKey(key) {
		return defaultValue, nil
	}
	value, err := strconv.ParseUint(section.Key(key).Value(), 0, bitSize)
	if err != nil {
		return 0, illegal(section, key, err)
	}
	return value, nil
}

func parseDuration(section *ini.Section, key string, defaultValue time.Duration) (time.Duration, error) {
	if !section.HasKey(key) {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(section.Key(key).Value())
	if err != nil {
		return 0, illegal(section, key, err)
	}
	return value, nil
}

// Configuration of the named bus e.g. Bus("can1") for section [bus.can1]
func (f *File) Bus(name string) (bus.Config, error) {
	config := bus.DefaultConfig()
	section, err := f.file.GetSection(busPrefix + name)
	if err != nil {
		return config, fmt.Errorf("%w : no bus named %v", cantranslator.ErrIllegalArgument, name)
	}

	speed, err := parseUint(section, "speed", 32, uint64(config.Speed))
	if err != nil {
		return config, err
	}
	address, err := parseUint(section, "address", 32, uint64(config.Address))
	if err != nil {
		return config, err
	}
	sysFreq, err := parseUint(section, "sys_freq", 32, uint64(config.SysFreq))
	if err != nil {
		return config, err
	}
	channels, err := parseUint(section, "channels", 8, uint64(config.Channels))
	if err != nil {
		return config, err
	}
	buffers, err := parseUint(section, "buffers", 8, uint64(config.BuffersPerChannel))
	if err != nil {
		return config, err
	}
	queue, err := parseUint(section, "queue", 16, uint64(config.QueueSize))
	if err != nil {
		return config, err
	}
	modeTimeout, err := parseDuration(section, "mode_timeout", config.ModeTimeout)
	if err != nil {
		return config, err
	}
	pollInterval, err := parseDuration(section, "poll_interval", config.PollInterval)
	if err != nil {
		return config, err
	}

	config.Speed = uint32(speed)
	config.Address = uint32(address)
	config.SysFreq = uint32(sysFreq)
	config.Channels = int(channels)
	config.BuffersPerChannel = int(buffers)
	config.QueueSize = int(queue)
	config.ModeTimeout = modeTimeout
	config.PollInterval = pollInterval
	return config, config.Validate()
}

func filterSection(address uint32) string {
	return filterPrefix + "0x" + strconv.FormatUint(uint64(address), 16)
}

// Filters configured for a bus address
func (f *File) Filters(address uint32) ([]filter.Descriptor, error) {
	filters := []filter.Descriptor{}
	parent := filterSection(address)
	for _, section := range f.file.ChildSections(parent) {
		// Only direct children describe filters
		if strings.Contains(section.Name()[len(parent)+1:], ".") {
			log.Warnf("[CONFIG] ignoring nested section [%v]", section.Name())
			continue
		}
		number, err := parseUint(section, "number", 8, 0)
		if err != nil {
			return nil, err
		}
		if can.Filter(number) > can.MaxFilter {
			return nil, illegal(section, "number", fmt.Errorf("%v above %v", number, can.MaxFilter))
		}
		value, err := parseUint(section, "value", 32, 0)
		if err != nil {
			return nil, err
		}
		if uint32(value) > can.CanSffMask {
			return nil, illegal(section, "value", fmt.Errorf("0x%X is not a standard identifier", value))
		}
		mask, err := parseUint(section, "mask", 8, 0)
		if err != nil {
			return nil, err
		}
		if mask > uint64(can.FilterMask3) {
			return nil, illegal(section, "mask", fmt.Errorf("%v above %v", mask, can.FilterMask3))
		}
		channel, err := parseUint(section, "channel", 8, uint64(bus.RxChannel))
		if err != nil {
			return nil, err
		}
		if can.Channel(channel) > can.MaxChannel {
			return nil, illegal(section, "channel", fmt.Errorf("%v above %v", channel, can.MaxChannel))
		}
		filters = append(filters, filter.Descriptor{
			Number:     can.Filter(number),
			Value:      uint32(value),
			MaskNumber: can.FilterMask(mask),
			Channel:    can.Channel(channel),
		})
	}
	return filters, nil
}

// Provide implements [filter.Provider]. An invalid filter section
// is logged and no filters are returned for the address.
func (f *File) Provide(address uint32) []filter.Descriptor {
	filters, err := f.Filters(address)
	if err != nil {
		log.Errorf("[CONFIG] filters for x%x : %v", address, err)
		return nil
	}
	return filters
}
