package can

import (
	"errors"
	"testing"

	cantranslator "github.com/samsamfire/gocantranslator"
	"github.com/stretchr/testify/assert"
)

func TestMessageBuffer(t *testing.T) {
	raw := make([]byte, BytesPerBuffer)
	for i := range raw {
		raw[i] = 0xFF
	}
	buffer := MessageBuffer(raw)

	t.Run("clear", func(t *testing.T) {
		buffer.Clear()
		assert.Equal(t, make([]byte, BytesPerBuffer), raw)
	})

	t.Run("sid is limited to 11 bits", func(t *testing.T) {
		buffer.SetSID(0xFFFF)
		assert.EqualValues(t, 0x7FF, buffer.SID())
		buffer.SetSID(0x123)
		assert.EqualValues(t, 0x123, buffer.SID())
		assert.Equal(t, []byte{0x23, 0x01, 0, 0}, raw[0:4])
	})

	t.Run("dlc and ide share word 1", func(t *testing.T) {
		buffer.SetDLC(8)
		buffer.SetIDE(true)
		assert.True(t, buffer.IDE())
		assert.EqualValues(t, 8, buffer.DLC())
		buffer.SetIDE(false)
		assert.False(t, buffer.IDE())
		assert.EqualValues(t, 8, buffer.DLC())
	})

	t.Run("data writes through", func(t *testing.T) {
		copy(buffer.Data(), []byte{1, 2, 3, 4, 5, 6, 7, 8})
		assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, raw[8:16])
		frame := buffer.Frame()
		assert.EqualValues(t, 0x123, frame.ID)
		assert.EqualValues(t, 8, frame.DLC)
		assert.Equal(t, [8]byte{1, 2, 3, 4, 5, 6, 7, 8}, frame.Data)
	})
}

func TestPrescaler(t *testing.T) {
	config := DefaultBitConfig()
	assert.EqualValues(t, 10, config.TimeQuanta())

	brp, exact := config.Prescaler(80_000_000, 500_000)
	assert.True(t, exact)
	assert.EqualValues(t, 7, brp)
	assert.EqualValues(t, 500_000, config.NominalBitRate(80_000_000, brp))

	brp, exact = config.Prescaler(80_000_000, 1_000_000)
	assert.True(t, exact)
	assert.EqualValues(t, 3, brp)

	_, exact = config.Prescaler(80_000_000, 300_000)
	assert.False(t, exact)

	_, exact = config.Prescaler(80_000_000, 0)
	assert.False(t, exact)

	_, exact = config.Prescaler(1_000, 500_000)
	assert.False(t, exact)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "CONFIGURATION", ModeConfiguration.String())
	assert.Equal(t, "NORMAL-OPERATION", ModeNormalOperation.String())
	assert.Equal(t, "UNKNOWN(9)", Mode(9).String())
}

func TestRegistry(t *testing.T) {
	_, err := NewBackend("does-not-exist", "can0")
	assert.True(t, errors.Is(err, cantranslator.ErrUnsupportedBackend))

	RegisterBackend("test-backend", func(channel string) (Backend, error) {
		return nil, nil
	})
	assert.Contains(t, AvailableBackends(), "test-backend")
	_, err = NewBackend("test-backend", "x")
	assert.Nil(t, err)
}
