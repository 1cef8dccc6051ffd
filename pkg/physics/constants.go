// Package physics provides the physical constants and unit conversions shared
// by the microscope model, the TIE solver, and the reconstruction
// orchestrator. Values follow CODATA 2018.
package physics

// Constants bundles the physical constants used throughout the reconstruction
// pipeline. Callers that need a non-standard table (for example in tests that
// want round numbers) can construct their own value; everything else should
// use Default().
type Constants struct {
	// SpeedOfLight in m/s
	SpeedOfLight float64

	// ElectronCharge in coulombs
	ElectronCharge float64

	// ElectronMass is the electron rest mass in kg
	ElectronMass float64

	// Planck is Planck's constant in J*s
	Planck float64

	// HBar is the reduced Planck constant in J*s
	HBar float64
}

// Default returns the CODATA 2018 constants table.
func Default() Constants {
	return Constants{
		SpeedOfLight:   2.99792458e8,
		ElectronCharge: 1.602176634e-19,
		ElectronMass:   9.1093837015e-31,
		Planck:         6.62607015e-34,
		HBar:           1.054571817e-34,
	}
}

// HBarOverE converts a phase gradient in rad/nm into integrated in-plane
// induction in T*nm:
//
//	B_perp * t = (hbar/e) * (grad phi x z_hat)
//
// so Bx*t = +HBarOverE * dphi/dy and By*t = -HBarOverE * dphi/dx.
// The value is hbar/e expressed in T*nm^2.
const HBarOverE = 658.2119569

// TeslaToGauss converts induction values from tesla to gauss.
const TeslaToGauss = 1e4

// MetersToNanometers converts lengths from m to nm.
const MetersToNanometers = 1e9
