package can

const CanSffMask uint32 = 0x000007FF

// Size of a standard CAN payload
const PayloadSize = 8

// A CAN frame
type Frame struct {
	ID    uint32
	Flags uint8
	DLC   uint8
	Data  [PayloadSize]byte
}

func NewFrame(id uint32, flags uint8, dlc uint8) Frame {
	return Frame{ID: id, Flags: flags, DLC: dlc}
}

// Called by a backend when an enabled channel / module event fires.
type InterruptHandler func()

// Backend is the capability set exposed by a CAN controller peripheral.
// Exactly one backend drives a bus, all configuration calls are expected
// while the module is in [ModeConfiguration].
//
// Configuration calls have no error return : a controller that rejects a
// setting does so silently, as the hardware does.
type Backend interface {
	// Acceptance filters
	ConfigureFilter(filter Filter, value uint32, idType IdType)
	ConfigureFilterMask(mask FilterMask, value uint32, idType IdType)
	LinkFilterToChannel(filter Filter, mask FilterMask, channel Channel)
	EnableFilter(filter Filter, enable bool)

	// Module state
	EnableModule(enable bool)
	SetOperatingMode(mode Mode)
	OperatingMode() Mode
	SetSpeed(config BitConfig, sysFreq uint32, speed uint32)
	AssignMemoryBuffer(buffer []byte)

	// Channels and events
	ConfigureChannelForTx(channel Channel, size int, rtr TxRtr, priority TxPriority)
	ConfigureChannelForRx(channel Channel, size int, mode RxMode)
	EnableChannelEvent(channel Channel, event ChannelEvent, enable bool)
	EnableModuleEvent(event ModuleEvent, enable bool)
	AttachInterrupt(handler InterruptHandler)

	// Transmission. TxMessageBuffer returns nil when every buffer
	// of the channel is already in use.
	TxMessageBuffer(channel Channel) MessageBuffer
	UpdateChannel(channel Channel)
	FlushTxChannel(channel Channel)
}
