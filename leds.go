package rbrleds

import (
	"github.com/pkg/errors"
	"io"
)

// LEDState is the bit pattern of the wheel's rev lights. Each state lights
// one more LED than the previous one.
type LEDState uint8

const (
	LEDsOff LEDState = 0
	LEDs1   LEDState = 1
	LEDs2   LEDState = 3
	LEDs3   LEDState = 7
	LEDs4   LEDState = 15
	LEDs5   LEDState = 31
)

// in order of intensity
var ledStates = []LEDState{LEDsOff, LEDs1, LEDs2, LEDs3, LEDs4, LEDs5}

const (
	DefaultFlashThreshold = 2
	percentageStep        = 20
)

var ErrDeviceConnectionLost = errors.New("wheel connection lost")

func ledReport(state LEDState) []byte {
	return []byte{0x00, 0xF8, 0x12, byte(state), 0x00, 0x00, 0x00, 0x01}
}

// LEDStateForPercentage buckets a 0-100 percentage of the active RPM range.
// Values on a bucket boundary belong to the higher bucket.
func LEDStateForPercentage(pct float32) LEDState {
	if pct < 0 {
		pct = 0
	}
	bucket := int(pct/percentageStep) + 1
	if bucket >= len(ledStates) {
		bucket = len(ledStates) - 1
	}
	return ledStates[bucket]
}

// ComputeLEDState lights the LEDs across the top half of the band between
// the idle RPM and the ceiling.
func ComputeLEDState(rpm, ceiling, idle float32) LEDState {
	rangeStart := ceiling - (ceiling-idle)/2
	width := ceiling - rangeStart
	if rangeStart == 0 || width <= 0 || !(rpm >= rangeStart) {
		return LEDsOff
	}
	pct := (rpm - rangeStart) / width * 100
	if pct > 100 {
		pct = 100
	}
	return LEDStateForPercentage(pct)
}

// LEDController drives the rev lights. Flashing at redline is counted in
// telemetry updates so the blink rate follows the telemetry rate.
type LEDController struct {
	w              io.Writer
	idleRPM        float32
	flashThreshold int

	state        LEDState
	flashToggled bool
	flashTimer   int
}

func NewLEDController(w io.Writer, idleRPM float32, flashThreshold int) *LEDController {
	if flashThreshold <= 0 {
		flashThreshold = DefaultFlashThreshold
	}
	return &LEDController{
		w:              w,
		idleRPM:        idleRPM,
		flashThreshold: flashThreshold,
	}
}

func (lc *LEDController) State() LEDState {
	return lc.state
}

// Off turns all LEDs off and resets the controller.
func (lc *LEDController) Off() error {
	if err := lc.write(LEDsOff); err != nil {
		return err
	}
	lc.state = LEDsOff
	lc.resetFlash()
	return nil
}

func (lc *LEDController) Update(s RPMState) error {
	newState := ComputeLEDState(s.RPM, s.Ceiling, lc.idleRPM)
	if newState != lc.state {
		if err := lc.write(newState); err != nil {
			return err
		}
		lc.state = newState
		lc.resetFlash()
	}
	if lc.state == LEDs5 {
		return lc.flash()
	}
	return nil
}

func (lc *LEDController) flash() error {
	if lc.flashTimer < lc.flashThreshold {
		lc.flashTimer++
	}
	if lc.flashTimer < lc.flashThreshold {
		return nil
	}

	next := LEDsOff
	if lc.flashToggled {
		next = LEDs5
	}
	if err := lc.write(next); err != nil {
		return err
	}
	lc.flashToggled = !lc.flashToggled
	lc.flashTimer = 0
	return nil
}

func (lc *LEDController) resetFlash() {
	lc.flashToggled = false
	lc.flashTimer = 0
}

func (lc *LEDController) write(state LEDState) error {
	if _, err := lc.w.Write(ledReport(state)); err != nil {
		return errors.Wrap(ErrDeviceConnectionLost, err.Error())
	}
	return nil
}
