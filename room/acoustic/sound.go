package acoustic

import (
	"errors"
	"fmt"
	"math"
)

const (
	// SpeedOfSound in air, m/s
	SpeedOfSound = 340.0
	// AcousticImpedance of air, rayls
	AcousticImpedance = 400.0
)

var ErrInvalidEnvironment = errors.New("invalid environment")

// Environment describes the medium sound travels through. It is passed by value into every
// simulation entry point; nothing in this module keeps it in package state.
type Environment struct {
	SpeedOfSound      float64
	AcousticImpedance float64
	// Intensity absorption of air per band, in 1/m. Zero disables air absorption.
	AirAbsorption Bands
}

func DefaultEnvironment() Environment {
	return Environment{
		SpeedOfSound:      SpeedOfSound,
		AcousticImpedance: AcousticImpedance,
	}
}

// NewEnvironment builds an environment whose air absorption is estimated from relative humidity
// (percent). A humidity of zero leaves air absorption disabled.
func NewEnvironment(speedOfSound, impedance, humidity float64) (Environment, error) {
	env := Environment{
		SpeedOfSound:      speedOfSound,
		AcousticImpedance: impedance,
	}
	if humidity > 0 {
		for i, f := range BandCentres {
			env.AirAbsorption[i] = EstimateAirIntensityAbsorption(f, humidity)
		}
	}
	return env, env.Validate()
}

func (e Environment) Validate() error {
	if e.SpeedOfSound < 300 || e.SpeedOfSound >= 400 {
		return fmt.Errorf("%w: speed of sound %v outside [300, 400)", ErrInvalidEnvironment, e.SpeedOfSound)
	}
	if e.AcousticImpedance <= 0 {
		return fmt.Errorf("%w: acoustic impedance must be positive", ErrInvalidEnvironment)
	}
	if e.AirAbsorption.Any(func(v float64) bool { return v < 0 }) {
		return fmt.Errorf("%w: air absorption must be non-negative", ErrInvalidEnvironment)
	}
	return nil
}

// Time returns the time in seconds sound takes to travel distance metres
func (e Environment) Time(distance float64) float64 {
	return distance / e.SpeedOfSound
}

// AirAttenuation returns the per-band intensity factor left after travelling distance metres
func (e Environment) AirAttenuation(distance float64) Bands {
	return e.AirAbsorption.Map(func(m float64) float64 {
		return math.Exp(-m * distance)
	})
}

// IntensityForDistance is the inverse-square spreading law for a unit-power point source
func IntensityForDistance(distance float64) float64 {
	return 1 / (4 * math.Pi * distance * distance)
}

func PressureForDistance(distance, impedance float64) float64 {
	return IntensityToPressure(IntensityForDistance(distance), impedance)
}

func PressureToIntensity(pressure, impedance float64) float64 {
	return pressure * pressure / impedance
}

func IntensityToPressure(intensity, impedance float64) float64 {
	return math.Sqrt(intensity * impedance)
}

// EstimateAirIntensityAbsorption approximates the intensity absorption of air at a frequency (Hz)
// and relative humidity (percent). fu2015 eq. 11.
func EstimateAirIntensityAbsorption(frequency, humidity float64) float64 {
	return (0.0275 / humidity) * math.Pow(frequency/1000, 1.7)
}

func ToDB(gain float64) float64 {
	return 10 * math.Log10(gain)
}

func FromDB(gainDB float64) float64 {
	return math.Pow(10, gainDB/10)
}
