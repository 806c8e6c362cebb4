package virtual

import (
	"sync"

	can "github.com/samsamfire/gocantranslator/pkg/can"
	log "github.com/sirupsen/logrus"
)

// Software model of a CAN controller, primarily used for testing.
// It implements the whole [can.Backend] capability set :
//   - mode changes are acknowledged after a configurable number of polls
//   - TX channels hand out slots of the assigned memory area, frames are
//     "transmitted" on flush and handed to an optional transmitter
//   - received frames go through the acceptance filters into RX channels
//     and fire the attached interrupt
//
// Every Backend call is recorded and can be inspected with Calls().

func init() {
	can.RegisterBackend("virtual", func(channel string) (can.Backend, error) {
		return NewController(), nil
	})
}

// A recorded Backend call
type Call struct {
	Method string
	Args   []any
}

type channelState struct {
	configured bool
	tx         bool
	size       int
	offset     int
	rtr        can.TxRtr
	priority   can.TxPriority
	rxMode     can.RxMode
	events     can.ChannelEvent
	// TX state, slots are used in ring order
	tail    int
	pending int
	// RX state
	rx      []can.Frame
	rxHead  int
	rxCount int
}

type filter struct {
	value   uint32
	idType  can.IdType
	mask    can.FilterMask
	channel can.Channel
	linked  bool
	enabled bool
}

type Controller struct {
	mu           sync.Mutex
	calls        []Call
	enabled      bool
	mode         can.Mode
	requested    can.Mode
	modePending  bool
	modeLatency  int
	pollsLeft    int
	bitConfig    can.BitConfig
	sysFreq      uint32
	speed        uint32
	prescaler    uint32
	memory       []byte
	nextOffset   int
	channels     [can.MaxChannel + 1]channelState
	filters      [can.MaxFilter + 1]filter
	masks        [4]uint32
	moduleEvents can.ModuleEvent
	handler      can.InterruptHandler
	autoTransmit bool
	transmitter  func(frame can.Frame) error
	transmitted  []can.Frame
	overflows    uint32
}

func NewController() *Controller {
	c := &Controller{mode: can.ModeDisable, autoTransmit: true}
	for i := range c.masks {
		c.masks[i] = can.CanSffMask
	}
	return c
}

// Number of OperatingMode polls that still report the previous mode
// after a mode request. A negative value means the request is never
// acknowledged.
func (c *Controller) SetModeLatency(polls int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modeLatency = polls
}

// When auto transmit is disabled, flushed frames stay in their buffers
// until TransmitPending is called. This simulates a busy bus.
func (c *Controller) SetAutoTransmit(enable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoTransmit = enable
}

// Set the function that receives transmitted frames
func (c *Controller) SetTransmitter(transmitter func(frame can.Frame) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transmitter = transmitter
}

func (c *Controller) record(method string, args ...any) {
	c.calls = append(c.calls, Call{Method: method, Args: args})
}

func (c *Controller) configurable(method string) bool {
	if c.mode != can.ModeConfiguration {
		log.Warnf("[VIRTUAL] %v ignored in mode %v", method, c.mode)
		return false
	}
	return true
}

func (c *Controller) ConfigureFilter(f can.Filter, value uint32, idType can.IdType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ConfigureFilter", f, value, idType)
	if f > can.MaxFilter {
		return
	}
	c.filters[f].value = value
	c.filters[f].idType = idType
}

func (c *Controller) ConfigureFilterMask(mask can.FilterMask, value uint32, idType can.IdType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ConfigureFilterMask", mask, value, idType)
	if int(mask) >= len(c.masks) || idType != can.SID {
		return
	}
	c.masks[mask] = value & can.CanSffMask
}

func (c *Controller) LinkFilterToChannel(f can.Filter, mask can.FilterMask, ch can.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("LinkFilterToChannel", f, mask, ch)
	if f > can.MaxFilter || int(mask) >= len(c.masks) || ch > can.MaxChannel {
		return
	}
	c.filters[f].mask = mask
	c.filters[f].channel = ch
	c.filters[f].linked = true
}

func (c *Controller) EnableFilter(f can.Filter, enable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("EnableFilter", f, enable)
	if f > can.MaxFilter {
		return
	}
	c.filters[f].enabled = enable
}

func (c *Controller) EnableModule(enable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("EnableModule", enable)
	c.enabled = enable
	if !enable {
		c.mode = can.ModeDisable
	}
}

func (c *Controller) SetOperatingMode(mode can.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("SetOperatingMode", mode)
	c.requested = mode
	c.modePending = true
	c.pollsLeft = c.modeLatency
}

func (c *Controller) OperatingMode() can.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("OperatingMode")
	if !c.modePending || !c.enabled || c.modeLatency < 0 {
		return c.mode
	}
	if c.pollsLeft > 0 {
		c.pollsLeft--
		return c.mode
	}
	c.mode = c.requested
	c.modePending = false
	return c.mode
}

func (c *Controller) SetSpeed(config can.BitConfig, sysFreq uint32, speed uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("SetSpeed", config, sysFreq, speed)
	if !c.configurable("SetSpeed") {
		return
	}
	prescaler, exact := config.Prescaler(sysFreq, speed)
	if !exact {
		log.Warnf("[VIRTUAL] speed %v not reachable with %v Hz clock, got %v",
			speed, sysFreq, config.NominalBitRate(sysFreq, prescaler))
	}
	c.bitConfig = config
	c.sysFreq = sysFreq
	c.speed = speed
	c.prescaler = prescaler
}

func (c *Controller) AssignMemoryBuffer(buffer []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("AssignMemoryBuffer", len(buffer))
	if !c.configurable("AssignMemoryBuffer") {
		return
	}
	c.memory = buffer
	c.nextOffset = 0
	for i := range c.channels {
		c.channels[i] = channelState{}
	}
}

// Reserve a channel area inside of the memory buffer
func (c *Controller) allocate(ch can.Channel, size int) (*channelState, bool) {
	if ch > can.MaxChannel || size <= 0 {
		return nil, false
	}
	needed := size * can.BytesPerBuffer
	if c.nextOffset+needed > len(c.memory) {
		log.Warnf("[VIRTUAL] not enough memory for channel %v : need %v, have %v",
			ch, needed, len(c.memory)-c.nextOffset)
		return nil, false
	}
	channel := &c.channels[ch]
	*channel = channelState{}
	channel.configured = true
	channel.size = size
	channel.offset = c.nextOffset
	c.nextOffset += needed
	return channel, true
}

func (c *Controller) ConfigureChannelForTx(ch can.Channel, size int, rtr can.TxRtr, priority can.TxPriority) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ConfigureChannelForTx", ch, size, rtr, priority)
	if !c.configurable("ConfigureChannelForTx") {
		return
	}
	channel, ok := c.allocate(ch, size)
	if !ok {
		return
	}
	channel.tx = true
	channel.rtr = rtr
	channel.priority = priority
}

func (c *Controller) ConfigureChannelForRx(ch can.Channel, size int, mode can.RxMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ConfigureChannelForRx", ch, size, mode)
	if !c.configurable("ConfigureChannelForRx") {
		return
	}
	channel, ok := c.allocate(ch, size)
	if !ok {
		return
	}
	channel.rxMode = mode
	channel.rx = make([]can.Frame, size)
}

func (c *Controller) EnableChannelEvent(ch can.Channel, event can.ChannelEvent, enable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("EnableChannelEvent", ch, event, enable)
	if ch > can.MaxChannel {
		return
	}
	if enable {
		c.channels[ch].events |= event
	} else {
		c.channels[ch].events &^= event
	}
}

func (c *Controller) EnableModuleEvent(event can.ModuleEvent, enable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("EnableModuleEvent", event, enable)
	if enable {
		c.moduleEvents |= event
	} else {
		c.moduleEvents &^= event
	}
}

func (c *Controller) AttachInterrupt(handler can.InterruptHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("AttachInterrupt")
	c.handler = handler
}

func (c *Controller) slot(channel *channelState, index int) can.MessageBuffer {
	start := channel.offset + index*can.BytesPerBuffer
	return can.MessageBuffer(c.memory[start : start+can.BytesPerBuffer])
}

func (c *Controller) txChannel(ch can.Channel) *channelState {
	if ch > can.MaxChannel {
		return nil
	}
	channel := &c.channels[ch]
	if !channel.configured || !channel.tx {
		return nil
	}
	return channel
}

func (c *Controller) TxMessageBuffer(ch can.Channel) can.MessageBuffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("TxMessageBuffer", ch)
	channel := c.txChannel(ch)
	if channel == nil || channel.pending == channel.size {
		return nil
	}
	return c.slot(channel, (channel.tail+channel.pending)%channel.size)
}

func (c *Controller) UpdateChannel(ch can.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("UpdateChannel", ch)
	channel := c.txChannel(ch)
	if channel == nil || channel.pending == channel.size {
		return
	}
	channel.pending++
}

func (c *Controller) FlushTxChannel(ch can.Channel) {
	c.mu.Lock()
	c.record("FlushTxChannel", ch)
	if !c.autoTransmit {
		c.mu.Unlock()
		return
	}
	frames := c.transmit(ch)
	c.mu.Unlock()
	c.publish(frames)
}

// Transmit every pending frame of a channel, returns the number of frames sent.
// Frames are only sent in normal or loopback mode.
func (c *Controller) TransmitPending(ch can.Channel) int {
	c.mu.Lock()
	frames := c.transmit(ch)
	c.mu.Unlock()
	c.publish(frames)
	return len(frames)
}

func (c *Controller) transmit(ch can.Channel) []can.Frame {
	channel := c.txChannel(ch)
	if channel == nil || !c.enabled {
		return nil
	}
	if c.mode != can.ModeNormalOperation && c.mode != can.ModeLoopback {
		return nil
	}
	frames := make([]can.Frame, 0, channel.pending)
	for channel.pending > 0 {
		frames = append(frames, c.slot(channel, channel.tail).Frame())
		channel.tail = (channel.tail + 1) % channel.size
		channel.pending--
	}
	c.transmitted = append(c.transmitted, frames...)
	return frames
}

func (c *Controller) publish(frames []can.Frame) {
	c.mu.Lock()
	transmitter := c.transmitter
	loopback := c.mode == can.ModeLoopback
	c.mu.Unlock()
	for _, frame := range frames {
		if loopback {
			c.Receive(frame)
			continue
		}
		if transmitter == nil {
			continue
		}
		if err := transmitter(frame); err != nil {
			log.Warnf("[VIRTUAL] %v", err)
		}
	}
}

// Receive a frame from the bus. The first enabled filter that matches
// decides the destination channel. Returns false if the frame was
// rejected or lost because the channel was full.
func (c *Controller) Receive(frame can.Frame) bool {
	c.mu.Lock()
	if !c.enabled || c.mode == can.ModeConfiguration || c.mode == can.ModeDisable {
		c.mu.Unlock()
		return false
	}
	id := frame.ID & can.CanSffMask
	for _, f := range c.filters {
		if !f.enabled || !f.linked || f.idType != can.SID {
			continue
		}
		channel := &c.channels[f.channel]
		if !channel.configured || channel.tx {
			continue
		}
		if (id^f.value)&c.masks[f.mask] != 0 {
			continue
		}
		if channel.rxCount == channel.size {
			c.overflows++
			c.mu.Unlock()
			return false
		}
		channel.rx[(channel.rxHead+channel.rxCount)%channel.size] = frame
		channel.rxCount++
		handler := c.handler
		fire := channel.events&can.RxChannelNotEmpty != 0 && c.moduleEvents&can.RxEvent != 0
		c.mu.Unlock()
		if fire && handler != nil {
			handler()
		}
		return true
	}
	c.mu.Unlock()
	return false
}

// Read the oldest frame of an RX channel
func (c *Controller) ReadRx(ch can.Channel) (can.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch > can.MaxChannel {
		return can.Frame{}, false
	}
	channel := &c.channels[ch]
	if !channel.configured || channel.tx || channel.rxCount == 0 {
		return can.Frame{}, false
	}
	frame := channel.rx[channel.rxHead]
	channel.rxHead = (channel.rxHead + 1) % channel.size
	channel.rxCount--
	return frame, true
}

// Recorded calls since creation or last ResetCalls
func (c *Controller) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	calls := make([]Call, len(c.calls))
	copy(calls, c.calls)
	return calls
}

// Recorded calls to a single method
func (c *Controller) CallsTo(method string) []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	calls := []Call{}
	for _, call := range c.calls {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

func (c *Controller) ResetCalls() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}

// Current mode, without polling the module
func (c *Controller) Mode() can.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) Prescaler() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prescaler
}

// Bit timing and system clock of the last accepted SetSpeed
func (c *Controller) BitTiming() (can.BitConfig, uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bitConfig, c.sysFreq
}

func (c *Controller) Speed() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// Frames transmitted so far
func (c *Controller) Transmitted() []can.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	frames := make([]can.Frame, len(c.transmitted))
	copy(frames, c.transmitted)
	return frames
}

// Number of frames waiting in a TX channel
func (c *Controller) Pending(ch can.Channel) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	channel := c.txChannel(ch)
	if channel == nil {
		return 0
	}
	return channel.pending
}

func (c *Controller) FilterEnabled(f can.Filter) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return f <= can.MaxFilter && c.filters[f].enabled
}

func (c *Controller) InterruptAttached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler != nil
}

// Number of frames lost because an RX channel was full
func (c *Controller) Overflows() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overflows
}
