package sensor

import "sync"

// adcToMillivolts converts a raw 10-bit ADC reading to millivolts on the
// board's 5V reference.
func adcToMillivolts(raw float64) float64 {
	return raw * 5000 / 1023
}

// Voltage measures a supply rail through a resistive divider on the board.
type Voltage struct {
	mu      sync.Mutex
	source  Source
	name    string
	channel string
	ratio   float64
	value   *float64
}

// NewVoltage builds a voltage sensor. r1 and r2 are the divider resistors
// in ohms; the measured value is scaled back up by (r1+r2)/r2.
func NewVoltage(source Source, name, channel string, r1, r2 float64) *Voltage {
	return &Voltage{
		source:  source,
		name:    name,
		channel: channel,
		ratio:   (r1 + r2) / r2,
	}
}

func (v *Voltage) Read() (float64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	reading, ok := v.source.LatestReading(v.channel)
	if !ok {
		v.value = nil
		return 0, false
	}
	val := v.ratio * reading.Data * 5 / 1023
	v.value = &val
	return val, true
}

func (v *Voltage) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Status{Name: v.name, Value: v.value, Units: "mV"}
}

// TMP36Scale converts TMP36 output millivolts to degrees Celsius.
func TMP36Scale(mv float64) float64 {
	return (mv - 500) / 10
}

// Temperature reads an analog temperature sensor. The scaling function maps
// sensor millivolts to degrees; it defaults to the TMP36 formula.
type Temperature struct {
	mu      sync.Mutex
	source  Source
	name    string
	channel string
	scale   func(mv float64) float64
	value   *float64
}

// NewTemperature builds a temperature sensor. A nil scale selects TMP36.
func NewTemperature(source Source, name, channel string, scale func(mv float64) float64) *Temperature {
	if scale == nil {
		scale = TMP36Scale
	}
	return &Temperature{
		source:  source,
		name:    name,
		channel: channel,
		scale:   scale,
	}
}

func (t *Temperature) Read() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	reading, ok := t.source.LatestReading(t.channel)
	if !ok {
		t.value = nil
		return 0, false
	}
	val := t.scale(adcToMillivolts(reading.Data))
	t.value = &val
	return val, true
}

func (t *Temperature) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{Name: t.name, Value: t.value, Units: "C"}
}

// Sonar reads an LV-MaxSonar-EZ1. The board already converts the PWM pulse
// to inches, so the raw datum passes through as an integer.
type Sonar struct {
	mu      sync.Mutex
	source  Source
	name    string
	channel string
	value   *float64
}

// NewSonar builds a sonar rangefinder sensor.
func NewSonar(source Source, name, channel string) *Sonar {
	return &Sonar{source: source, name: name, channel: channel}
}

func (s *Sonar) Read() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reading, ok := s.source.LatestReading(s.channel)
	if !ok {
		s.value = nil
		return 0, false
	}
	val := float64(int(reading.Data))
	s.value = &val
	return val, true
}

func (s *Sonar) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Name: s.name, Value: s.value, Units: `"`}
}
