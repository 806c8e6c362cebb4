package virtual

import (
	"testing"

	can "github.com/samsamfire/gocantranslator/pkg/can"
	"github.com/stretchr/testify/assert"
)

// Bring a controller into configuration mode with one TX and one RX channel
func newConfigured(t *testing.T) *Controller {
	t.Helper()
	c := NewController()
	c.EnableModule(true)
	c.SetOperatingMode(can.ModeConfiguration)
	assert.Equal(t, can.ModeConfiguration, c.OperatingMode())
	c.AssignMemoryBuffer(make([]byte, 2*8*can.BytesPerBuffer))
	c.ConfigureChannelForTx(can.Channel0, 8, can.TxRtrDisabled, can.LowMediumPriority)
	c.ConfigureChannelForRx(can.Channel1, 8, can.RxFullReceive)
	return c
}

func toNormal(c *Controller) {
	c.SetOperatingMode(can.ModeNormalOperation)
	c.OperatingMode()
}

func TestModeLatency(t *testing.T) {
	c := NewController()
	c.EnableModule(true)
	c.SetModeLatency(2)
	c.SetOperatingMode(can.ModeConfiguration)
	assert.Equal(t, can.ModeDisable, c.OperatingMode())
	assert.Equal(t, can.ModeDisable, c.OperatingMode())
	assert.Equal(t, can.ModeConfiguration, c.OperatingMode())

	t.Run("never acknowledged", func(t *testing.T) {
		c.SetModeLatency(-1)
		c.SetOperatingMode(can.ModeNormalOperation)
		for i := 0; i < 100; i++ {
			assert.Equal(t, can.ModeConfiguration, c.OperatingMode())
		}
	})

	t.Run("disabled module does not change mode", func(t *testing.T) {
		d := NewController()
		d.SetOperatingMode(can.ModeConfiguration)
		assert.Equal(t, can.ModeDisable, d.OperatingMode())
	})
}

func TestConfigurationOnlyInConfigMode(t *testing.T) {
	c := NewController()
	c.EnableModule(true)
	c.AssignMemoryBuffer(make([]byte, 256))
	c.ConfigureChannelForTx(can.Channel0, 8, can.TxRtrDisabled, can.LowMediumPriority)
	assert.Nil(t, c.TxMessageBuffer(can.Channel0))
}

func TestTxChannel(t *testing.T) {
	c := newConfigured(t)
	toNormal(c)

	t.Run("transmit on flush", func(t *testing.T) {
		sent := []can.Frame{}
		c.SetTransmitter(func(frame can.Frame) error {
			sent = append(sent, frame)
			return nil
		})
		buffer := c.TxMessageBuffer(can.Channel0)
		assert.NotNil(t, buffer)
		buffer.Clear()
		buffer.SetSID(0x101)
		buffer.SetDLC(8)
		copy(buffer.Data(), []byte{1, 2, 3, 4, 5, 6, 7, 8})
		c.UpdateChannel(can.Channel0)
		c.FlushTxChannel(can.Channel0)
		assert.Len(t, sent, 1)
		assert.EqualValues(t, 0x101, sent[0].ID)
		assert.Equal(t, [8]byte{1, 2, 3, 4, 5, 6, 7, 8}, sent[0].Data)
		assert.Equal(t, 0, c.Pending(can.Channel0))
		assert.Len(t, c.Transmitted(), 1)
	})

	t.Run("full channel returns no buffer", func(t *testing.T) {
		c.SetAutoTransmit(false)
		for i := 0; i < 8; i++ {
			buffer := c.TxMessageBuffer(can.Channel0)
			assert.NotNil(t, buffer)
			buffer.SetSID(uint32(i))
			c.UpdateChannel(can.Channel0)
			c.FlushTxChannel(can.Channel0)
		}
		assert.Nil(t, c.TxMessageBuffer(can.Channel0))
		assert.Equal(t, 8, c.TransmitPending(can.Channel0))
		assert.NotNil(t, c.TxMessageBuffer(can.Channel0))
	})

	t.Run("rx channel has no tx buffer", func(t *testing.T) {
		assert.Nil(t, c.TxMessageBuffer(can.Channel1))
	})
}

func TestNotEnoughMemory(t *testing.T) {
	c := NewController()
	c.EnableModule(true)
	c.SetOperatingMode(can.ModeConfiguration)
	c.OperatingMode()
	c.AssignMemoryBuffer(make([]byte, 8*can.BytesPerBuffer))
	c.ConfigureChannelForTx(can.Channel0, 8, can.TxRtrDisabled, can.LowMediumPriority)
	c.ConfigureChannelForRx(can.Channel1, 8, can.RxFullReceive)
	assert.NotNil(t, c.TxMessageBuffer(can.Channel0))
	toNormal(c)
	c.ConfigureFilter(0, 0x100, can.SID)
	c.LinkFilterToChannel(0, can.FilterMask0, can.Channel1)
	c.EnableFilter(0, true)
	assert.False(t, c.Receive(can.Frame{ID: 0x100}))
}

func TestReceive(t *testing.T) {
	c := newConfigured(t)
	c.ConfigureFilter(0, 0x100, can.SID)
	c.LinkFilterToChannel(0, can.FilterMask0, can.Channel1)
	c.EnableFilter(0, true)
	c.ConfigureFilterMask(can.FilterMask1, 0x700, can.SID)
	c.ConfigureFilter(1, 0x200, can.SID)
	c.LinkFilterToChannel(1, can.FilterMask1, can.Channel1)
	c.EnableFilter(1, true)
	interrupts := 0
	c.AttachInterrupt(func() { interrupts++ })

	t.Run("nothing received in configuration mode", func(t *testing.T) {
		assert.False(t, c.Receive(can.Frame{ID: 0x100}))
	})

	toNormal(c)

	t.Run("exact match on default mask", func(t *testing.T) {
		assert.True(t, c.Receive(can.Frame{ID: 0x100, DLC: 1}))
		assert.False(t, c.Receive(can.Frame{ID: 0x101}))
		frame, ok := c.ReadRx(can.Channel1)
		assert.True(t, ok)
		assert.EqualValues(t, 0x100, frame.ID)
		_, ok = c.ReadRx(can.Channel1)
		assert.False(t, ok)
	})

	t.Run("mask group", func(t *testing.T) {
		assert.True(t, c.Receive(can.Frame{ID: 0x2AB}))
		assert.False(t, c.Receive(can.Frame{ID: 0x3AB}))
	})

	t.Run("interrupt needs both events", func(t *testing.T) {
		assert.Equal(t, 0, interrupts)
		c.EnableChannelEvent(can.Channel1, can.RxChannelNotEmpty, true)
		assert.True(t, c.Receive(can.Frame{ID: 0x100}))
		assert.Equal(t, 0, interrupts)
		c.EnableModuleEvent(can.RxEvent, true)
		assert.True(t, c.Receive(can.Frame{ID: 0x100}))
		assert.Equal(t, 1, interrupts)
	})

	t.Run("overflow", func(t *testing.T) {
		for i := 0; i < 16; i++ {
			c.Receive(can.Frame{ID: 0x100})
		}
		assert.NotZero(t, c.Overflows())
	})

	t.Run("disabled filter", func(t *testing.T) {
		for {
			if _, ok := c.ReadRx(can.Channel1); !ok {
				break
			}
		}
		c.EnableFilter(0, false)
		assert.False(t, c.Receive(can.Frame{ID: 0x100}))
	})
}

func TestLoopback(t *testing.T) {
	c := newConfigured(t)
	c.ConfigureFilter(0, 0x123, can.SID)
	c.LinkFilterToChannel(0, can.FilterMask0, can.Channel1)
	c.EnableFilter(0, true)
	c.SetOperatingMode(can.ModeLoopback)
	assert.Equal(t, can.ModeLoopback, c.OperatingMode())
	buffer := c.TxMessageBuffer(can.Channel0)
	buffer.Clear()
	buffer.SetSID(0x123)
	buffer.SetDLC(8)
	c.UpdateChannel(can.Channel0)
	c.FlushTxChannel(can.Channel0)
	frame, ok := c.ReadRx(can.Channel1)
	assert.True(t, ok)
	assert.EqualValues(t, 0x123, frame.ID)
}

func TestCallRecording(t *testing.T) {
	c := NewController()
	c.EnableModule(true)
	c.SetOperatingMode(can.ModeConfiguration)
	assert.Len(t, c.Calls(), 2)
	assert.Len(t, c.CallsTo("EnableModule"), 1)
	// Inspection helpers are not recorded
	c.Mode()
	c.Pending(can.Channel0)
	assert.Len(t, c.Calls(), 2)
	c.ResetCalls()
	assert.Empty(t, c.Calls())
}

func TestRegistered(t *testing.T) {
	backend, err := can.NewBackend("virtual", "")
	assert.Nil(t, err)
	assert.IsType(t, &Controller{}, backend)
}
