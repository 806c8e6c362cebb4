package can

import "encoding/binary"

// Size of one message buffer in the module memory area
const BytesPerBuffer = 16

// Message buffer layout, four little endian words :
//
//	word 0 : SID (bits 0..10)
//	word 1 : DLC (bits 0..3), IDE (bit 29)
//	word 2 & 3 : data bytes 0..7
const (
	sidMask uint32 = 0x7FF
	dlcMask uint32 = 0xF
	ideBit  uint32 = 1 << 29
	dataPos        = 8
)

// MessageBuffer is a view on one 16 byte slot of the memory area
// assigned to the module.
type MessageBuffer []byte

func (m MessageBuffer) word(n int) uint32 {
	return binary.LittleEndian.Uint32(m[n*4:])
}

func (m MessageBuffer) setWord(n int, value uint32) {
	binary.LittleEndian.PutUint32(m[n*4:], value)
}

// Clear all four words
func (m MessageBuffer) Clear() {
	for i := 0; i < 4; i++ {
		m.setWord(i, 0)
	}
}

func (m MessageBuffer) SID() uint32 {
	return m.word(0) & sidMask
}

func (m MessageBuffer) SetSID(sid uint32) {
	m.setWord(0, (m.word(0)&^sidMask)|(sid&sidMask))
}

// Extended identifier flag
func (m MessageBuffer) IDE() bool {
	return m.word(1)&ideBit != 0
}

func (m MessageBuffer) SetIDE(enable bool) {
	if enable {
		m.setWord(1, m.word(1)|ideBit)
	} else {
		m.setWord(1, m.word(1)&^ideBit)
	}
}

func (m MessageBuffer) DLC() uint8 {
	return uint8(m.word(1) & dlcMask)
}

func (m MessageBuffer) SetDLC(length uint8) {
	m.setWord(1, (m.word(1)&^dlcMask)|(uint32(length)&dlcMask))
}

// Data area of the buffer, writes go straight to the module memory
func (m MessageBuffer) Data() []byte {
	return m[dataPos : dataPos+PayloadSize]
}

// Decode buffer content as a standard frame
func (m MessageBuffer) Frame() Frame {
	frame := NewFrame(m.SID(), 0, m.DLC())
	copy(frame.Data[:], m.Data())
	return frame
}
