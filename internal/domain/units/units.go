// Package units provides unit conversion for the process dimensions the
// engine works in: temperature, pressure, power and energy. Each dimension
// has a closed unit set; unknown units and non-finite inputs are rejected.
package units

import (
	"math"

	"github.com/verdantis/peaproc/internal/domain/errors"
)

type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "celsius"
	Fahrenheit TemperatureUnit = "fahrenheit"
	Kelvin     TemperatureUnit = "kelvin"
)

type PressureUnit string

const (
	Pascal     PressureUnit = "pascal"
	Kilopascal PressureUnit = "kilopascal"
	Bar        PressureUnit = "bar"
	PSI        PressureUnit = "psi"
	Atmosphere PressureUnit = "atm"
)

type PowerUnit string

const (
	Watt       PowerUnit = "watt"
	Kilowatt   PowerUnit = "kilowatt"
	Horsepower PowerUnit = "horsepower"
	BTUPerHour PowerUnit = "btu_per_hour"
)

type EnergyUnit string

const (
	Joule        EnergyUnit = "joule"
	Kilojoule    EnergyUnit = "kilojoule"
	KilowattHour EnergyUnit = "kilowatt_hour"
	Megajoule    EnergyUnit = "megajoule"
)

// Conversion factors to the SI base unit of each dimension.
var (
	pressureToPascal = map[PressureUnit]float64{
		Pascal:     1,
		Kilopascal: 1000,
		Bar:        100000,
		PSI:        6894.757293168,
		Atmosphere: 101325,
	}

	powerToWatt = map[PowerUnit]float64{
		Watt:       1,
		Kilowatt:   1000,
		Horsepower: 745.699872, // mechanical horsepower
		BTUPerHour: 0.29307107,
	}

	energyToJoule = map[EnergyUnit]float64{
		Joule:        1,
		Kilojoule:    1000,
		KilowattHour: 3.6e6,
		Megajoule:    1e6,
	}
)

// ConvertTemperature converts a temperature reading between units.
func ConvertTemperature(value float64, from, to TemperatureUnit) (float64, error) {
	if err := checkFinite(value); err != nil {
		return 0, err
	}

	var celsius float64
	switch from {
	case Celsius:
		celsius = value
	case Fahrenheit:
		celsius = (value - 32) * 5 / 9
	case Kelvin:
		celsius = value - 273.15
	default:
		return 0, errors.NewValidationError("UNKNOWN_UNIT", "unknown temperature unit: "+string(from))
	}

	switch to {
	case Celsius:
		return celsius, nil
	case Fahrenheit:
		return celsius*9/5 + 32, nil
	case Kelvin:
		return celsius + 273.15, nil
	default:
		return 0, errors.NewValidationError("UNKNOWN_UNIT", "unknown temperature unit: "+string(to))
	}
}

// ConvertPressure converts a pressure reading between units.
func ConvertPressure(value float64, from, to PressureUnit) (float64, error) {
	if err := checkFinite(value); err != nil {
		return 0, err
	}

	fromFactor, ok := pressureToPascal[from]
	if !ok {
		return 0, errors.NewValidationError("UNKNOWN_UNIT", "unknown pressure unit: "+string(from))
	}
	toFactor, ok := pressureToPascal[to]
	if !ok {
		return 0, errors.NewValidationError("UNKNOWN_UNIT", "unknown pressure unit: "+string(to))
	}

	return value * fromFactor / toFactor, nil
}

// ConvertPower converts a power reading between units.
func ConvertPower(value float64, from, to PowerUnit) (float64, error) {
	if err := checkFinite(value); err != nil {
		return 0, err
	}

	fromFactor, ok := powerToWatt[from]
	if !ok {
		return 0, errors.NewValidationError("UNKNOWN_UNIT", "unknown power unit: "+string(from))
	}
	toFactor, ok := powerToWatt[to]
	if !ok {
		return 0, errors.NewValidationError("UNKNOWN_UNIT", "unknown power unit: "+string(to))
	}

	return value * fromFactor / toFactor, nil
}

// ConvertEnergy converts an energy quantity between units.
func ConvertEnergy(value float64, from, to EnergyUnit) (float64, error) {
	if err := checkFinite(value); err != nil {
		return 0, err
	}

	fromFactor, ok := energyToJoule[from]
	if !ok {
		return 0, errors.NewValidationError("UNKNOWN_UNIT", "unknown energy unit: "+string(from))
	}
	toFactor, ok := energyToJoule[to]
	if !ok {
		return 0, errors.NewValidationError("UNKNOWN_UNIT", "unknown energy unit: "+string(to))
	}

	return value * fromFactor / toFactor, nil
}

func checkFinite(value float64) error {
	if math.IsNaN(value) {
		return errors.NewValidationError("NOT_FINITE", "value cannot be NaN")
	}
	if math.IsInf(value, 0) {
		return errors.NewValidationError("NOT_FINITE", "value cannot be infinite")
	}
	return nil
}
