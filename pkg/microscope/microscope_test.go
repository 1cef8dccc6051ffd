package microscope

import (
	"errors"
	"math"
	"testing"

	"lorentztie/pkg/tie"
)

// TestWavelength checks the relativistic wavelength against the standard
// tabulated values for common accelerating voltages.
func TestWavelength(t *testing.T) {
	testCases := []struct {
		voltage  float64
		lambdaNm float64
	}{
		{200e3, 2.5079e-3},
		{300e3, 1.9687e-3},
	}

	for _, tc := range testCases {
		scope, err := New(tc.voltage)
		if err != nil {
			t.Fatalf("New(%g) failed: %v", tc.voltage, err)
		}
		if relErr := math.Abs(scope.Lambda-tc.lambdaNm) / tc.lambdaNm; relErr > 1e-3 {
			t.Errorf("lambda at %g V: expected %g nm, got %g nm", tc.voltage, tc.lambdaNm, scope.Lambda)
		}
	}
}

// TestInteractionConstant checks sigma against the tabulated value at 200 kV
// and its monotonic decrease with voltage.
func TestInteractionConstant(t *testing.T) {
	scope200, err := New(200e3)
	if err != nil {
		t.Fatalf("New(200kV) failed: %v", err)
	}

	// sigma(200 kV) = 7.29e-3 1/(V*nm) in the standard tables.
	expected := 7.288e-3
	if relErr := math.Abs(scope200.Sigma-expected) / expected; relErr > 1e-3 {
		t.Errorf("sigma at 200 kV: expected %g, got %g", expected, scope200.Sigma)
	}

	scope300, err := New(300e3)
	if err != nil {
		t.Fatalf("New(300kV) failed: %v", err)
	}
	if scope300.Sigma >= scope200.Sigma {
		t.Errorf("sigma should decrease with voltage: sigma(300kV)=%g >= sigma(200kV)=%g",
			scope300.Sigma, scope200.Sigma)
	}
}

// TestInvalidVoltage verifies the failure mode for non-physical voltages.
func TestInvalidVoltage(t *testing.T) {
	for _, voltage := range []float64{0, -200e3} {
		_, err := New(voltage)
		if !errors.Is(err, tie.ErrInvalidParameter) {
			t.Errorf("New(%g): expected ErrInvalidParameter, got %v", voltage, err)
		}
	}
}
