package can

// Bit timing of the module, segments are expressed in time quanta (TQ)
type BitConfig struct {
	PropagationSegTq    uint8
	PhaseSeg1Tq         uint8
	PhaseSeg2Tq         uint8
	SyncJumpWidth       uint8
	PhaseSeg2TimeSelect bool // phase segment 2 is freely programmable
	Sample3Time         bool // bus is sampled three times at the sample point
}

// Default bit timing : 3TQ for propagation, phase 1 and phase 2
// with a 2TQ sync jump width
func DefaultBitConfig() BitConfig {
	return BitConfig{
		PropagationSegTq:    3,
		PhaseSeg1Tq:         3,
		PhaseSeg2Tq:         3,
		SyncJumpWidth:       2,
		PhaseSeg2TimeSelect: true,
		Sample3Time:         true,
	}
}

// Number of time quanta in one bit, including the sync segment
func (c BitConfig) TimeQuanta() uint32 {
	return 1 + uint32(c.PropagationSegTq) + uint32(c.PhaseSeg1Tq) + uint32(c.PhaseSeg2Tq)
}

// Baud rate prescaler for the requested speed with the given system clock.
// exact is false when the speed cannot be reached without rounding or
// when it cannot be reached at all.
func (c BitConfig) Prescaler(sysFreq uint32, speed uint32) (prescaler uint32, exact bool) {
	if speed == 0 {
		return 0, false
	}
	divider := 2 * uint64(speed) * uint64(c.TimeQuanta())
	quotient := uint64(sysFreq) / divider
	if quotient == 0 {
		return 0, false
	}
	return uint32(quotient - 1), uint64(sysFreq)%divider == 0
}

// Bit rate actually produced by a prescaler value
func (c BitConfig) NominalBitRate(sysFreq uint32, prescaler uint32) uint32 {
	return uint32(uint64(sysFreq) / (2 * uint64(prescaler+1) * uint64(c.TimeQuanta())))
}
