// Package microscope models the electron source: it converts an accelerating
// voltage into the relativistic electron wavelength and the interaction
// constant that scale intensity derivatives into phase.
package microscope

import (
	"fmt"
	"math"

	"lorentztie/pkg/physics"
	"lorentztie/pkg/tie"
)

// Microscope holds the derived beam parameters for one accelerating voltage.
type Microscope struct {
	// Voltage is the accelerating voltage in volts.
	Voltage float64

	// Lambda is the relativistic electron wavelength in nm.
	Lambda float64

	// Sigma is the interaction constant in 1/(V*nm), relating projected
	// electrostatic potential to phase shift.
	Sigma float64
}

// New derives the beam parameters for the given accelerating voltage using
// the default constants table. The voltage must be positive.
func New(voltage float64) (*Microscope, error) {
	return NewWithConstants(voltage, physics.Default())
}

// NewWithConstants is New with an explicit constants table.
func NewWithConstants(voltage float64, c physics.Constants) (*Microscope, error) {
	if voltage <= 0 {
		return nil, fmt.Errorf("accelerating voltage must be positive, got %g V: %w",
			voltage, tie.ErrInvalidParameter)
	}

	// Relativistic de Broglie wavelength:
	//   lambda = h / sqrt(2 m eV (1 + eV / (2 m c^2)))
	eV := voltage * c.ElectronCharge
	restEnergy := c.ElectronMass * c.SpeedOfLight * c.SpeedOfLight
	lambdaM := c.Planck / math.Sqrt(2*c.ElectronMass*eV*(1+eV/(2*restEnergy)))

	// Interaction constant:
	//   sigma = 2 pi gamma m e lambda / h^2
	gamma := 1 + eV/restEnergy
	sigmaPerVm := 2 * math.Pi * gamma * c.ElectronMass * c.ElectronCharge * lambdaM /
		(c.Planck * c.Planck)

	return &Microscope{
		Voltage: voltage,
		Lambda:  lambdaM * physics.MetersToNanometers,
		Sigma:   sigmaPerVm / physics.MetersToNanometers,
	}, nil
}
