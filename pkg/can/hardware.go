package can

import "fmt"

// Operating modes of the CAN module
type Mode uint8

const (
	ModeNormalOperation Mode = 0
	ModeDisable         Mode = 1
	ModeLoopback        Mode = 2
	ModeListenOnly      Mode = 3
	ModeConfiguration   Mode = 4
	ModeListenAll       Mode = 7
)

var modeMap = map[Mode]string{
	ModeNormalOperation: "NORMAL-OPERATION",
	ModeDisable:         "DISABLE",
	ModeLoopback:        "LOOPBACK",
	ModeListenOnly:      "LISTEN-ONLY",
	ModeConfiguration:   "CONFIGURATION",
	ModeListenAll:       "LISTEN-ALL",
}

func (m Mode) String() string {
	s, ok := modeMap[m]
	if !ok {
		return fmt.Sprintf("UNKNOWN(%d)", uint8(m))
	}
	return s
}

// Channel of the module, each channel is either TX or RX
type Channel uint8

const (
	Channel0 Channel = 0
	Channel1 Channel = 1
	// Highest channel number of the module
	MaxChannel Channel = 31
)

// Acceptance filter number
type Filter uint8

const MaxFilter Filter = 31

// Acceptance mask register
type FilterMask uint8

const (
	FilterMask0 FilterMask = 0
	FilterMask1 FilterMask = 1
	FilterMask2 FilterMask = 2
	FilterMask3 FilterMask = 3
)

// Identifier format used by filters and masks
type IdType uint8

const (
	SID IdType = 0 // 11 bit standard identifier
	EID IdType = 1 // 29 bit extended identifier
)

type TxRtr uint8

const (
	TxRtrDisabled TxRtr = 0
	TxRtrEnabled  TxRtr = 1
)

type TxPriority uint8

const (
	LowestPriority     TxPriority = 0
	LowMediumPriority  TxPriority = 1
	HighMediumPriority TxPriority = 2
	HighestPriority    TxPriority = 3
)

type RxMode uint8

const (
	RxFullReceive RxMode = 0
	RxDataOnly    RxMode = 1
)

// Channel events, can be combined
type ChannelEvent uint32

const (
	RxChannelNotEmpty ChannelEvent = 0x0001
	RxChannelHalfFull ChannelEvent = 0x0002
	RxChannelFull     ChannelEvent = 0x0004
	RxChannelOverflow ChannelEvent = 0x0008
	TxChannelEmpty    ChannelEvent = 0x0100
	TxChannelHalfFull ChannelEvent = 0x0200
	TxChannelNotFull  ChannelEvent = 0x0400
)

// Module events, can be combined
type ModuleEvent uint32

const (
	TxEvent              ModuleEvent = 0x0001
	RxEvent              ModuleEvent = 0x0002
	TimestampTimerEvent  ModuleEvent = 0x0004
	OperationModeChange  ModuleEvent = 0x0008
	RxOverflowEvent      ModuleEvent = 0x0800
	SystemErrorEvent     ModuleEvent = 0x1000
	BusActivityWakeEvent ModuleEvent = 0x4000
	InvalidRxEvent       ModuleEvent = 0x8000
)
