package bus

import (
	can "github.com/samsamfire/gocantranslator/pkg/can"
	log "github.com/sirupsen/logrus"
)

// Pack converts a payload to its wire order : wire byte i is payload
// byte 7-i. Receivers on the bus expect this order.
func Pack(payload [can.PayloadSize]byte) [can.PayloadSize]byte {
	var wire [can.PayloadSize]byte
	for i := range wire {
		wire[i] = payload[can.PayloadSize-1-i]
	}
	return wire
}

// Send writes a message to a free transmit buffer and requests its
// transmission. It returns false without blocking if all the buffers
// of the TX channel are in use.
func (b *Bus) Send(message Message) bool {
	buffer := b.backend.TxMessageBuffer(TxChannel)
	if buffer == nil {
		log.Debugf("[BUS][x%x] unable to get TX message area", b.config.Address)
		return false
	}
	buffer.Clear()
	buffer.SetSID(message.Destination)
	buffer.SetIDE(false)
	buffer.SetDLC(can.PayloadSize)
	wire := Pack(message.Data)
	copy(buffer.Data(), wire[:])
	log.Debugf("[BUS][x%x] sending message 0x%X to 0x%X", b.config.Address, wire, message.Destination)

	// Mark message as ready to be processed
	b.backend.UpdateChannel(TxChannel)
	b.backend.FlushTxChannel(TxChannel)
	return true
}
