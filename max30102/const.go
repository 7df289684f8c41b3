package max30102

// Register addresses
const (
	IntStat1         = 0x00
	IntStat2         = 0x01
	IntEna1          = 0x02
	IntEna2          = 0x03
	FIFOWrPtr        = 0x04
	OvfCount         = 0x05
	FIFORdPtr        = 0x06
	FIFOData         = 0x07
	FIFOCfg          = 0x08
	ModeCfg          = 0x09
	SpO2Cfg          = 0x0A
	Led1PA           = 0x0C
	Led2PA           = 0x0D
	MultiLedModeS2S1 = 0x11
	MultiLedModeS4S3 = 0x12
	TempInt          = 0x1F
	TempFrac         = 0x20
	TempCfg          = 0x21
	RegRevID         = 0xFE
	RegPartID        = 0xFF
)

// Device constants
const (
	Addr   = 0x57
	PartID = 0x15

	// FIFODepth is the number of samples the on-chip queue holds.
	FIFODepth = 32
	// maxADC is the full scale of an 18-bit sample.
	maxADC = 0x3FFFF
)

// Settings
const (
	TempEna      byte = 0b0000_0001
	ResetControl byte = 0b0100_0000
	Shutdown     byte = 0b1000_0000
)

// OpMode is the operating mode of the device.
type OpMode byte

const (
	ModeHR       OpMode = 0b010
	ModeSpO2     OpMode = 0b011
	ModeMultiLed OpMode = 0b111
)

// Stride returns the number of bytes a single sample takes in the FIFO.
func (m OpMode) Stride() (int, error) {
	switch m {
	case ModeHR:
		return 3, nil
	case ModeSpO2, ModeMultiLed:
		return 6, nil
	}
	return 0, ErrInvalidMode
}

func (m OpMode) String() string {
	switch m {
	case ModeHR:
		return "heart-rate"
	case ModeSpO2:
		return "spo2"
	case ModeMultiLed:
		return "multi-led"
	}
	return "invalid"
}

// Averaging is the number of samples averaged per FIFO sample.
type Averaging byte

const (
	Avg1 Averaging = iota
	Avg2
	Avg4
	Avg8
	Avg16
	Avg32
)

// ADCRange is the SpO2 ADC full-scale range.
type ADCRange byte

const (
	Range2048 ADCRange = iota
	Range4096
	Range8192
	Range16384
)

// SpO2 Sample Rate Control
type SampleRateControl byte

const (
	SR50 SampleRateControl = iota
	SR100
	SR200
	SR400
	SR800
	SR1000
	SR1600
	SR3200
)

// Resolution is the ADC resolution, set by the LED pulse width.
type Resolution byte

// LED Pulse Width Control
const (
	PW69  Resolution = iota // 15 bits
	PW118                   // 16 bits
	PW215                   // 17 bits
	PW411                   // 18 bits
)

// Shift returns how many low bits of an 18-bit sample are unused at this
// resolution.
func (r Resolution) Shift() uint {
	return uint(PW411 - r&0x3)
}

// Bits returns the effective bit depth.
func (r Resolution) Bits() int {
	return 15 + int(r&0x3)
}

// Slot is one of the four multi-LED time slots.
type Slot int

const (
	Slot1 Slot = iota + 1
	Slot2
	Slot3
	Slot4
)

// LED selects what a multi-LED slot drives.
type LED byte

const (
	LedNone LED = iota
	LedRed
	LedIR
)

// Interrupt identifies an interrupt source. The value is the bit position
// in its status and enable registers.
type Interrupt byte

const (
	AlmostFull            Interrupt = 7
	NewFIFOData           Interrupt = 6
	AmbientLightCancelOvf Interrupt = 5
	PowerReady            Interrupt = 0
	DieTempReady          Interrupt = 1
)

func (i Interrupt) statusReg() byte {
	if i == DieTempReady {
		return IntStat2
	}
	return IntStat1
}

func (i Interrupt) enableReg() byte {
	if i == DieTempReady {
		return IntEna2
	}
	return IntEna1
}

// Mask returns the bit of the interrupt in its register.
func (i Interrupt) Mask() byte {
	return 1 << i
}

func (i Interrupt) String() string {
	switch i {
	case AlmostFull:
		return "fifo-almost-full"
	case NewFIFOData:
		return "ppg-ready"
	case AmbientLightCancelOvf:
		return "alc-overflow"
	case PowerReady:
		return "power-ready"
	case DieTempReady:
		return "die-temp-ready"
	}
	return "unknown"
}

// status1 lists the sources in Interrupt Status 1 in the order they are
// dispatched.
var status1 = []Interrupt{AlmostFull, NewFIFOData, AmbientLightCancelOvf, PowerReady}
