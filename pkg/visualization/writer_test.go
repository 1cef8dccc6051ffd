package visualization

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"lorentztie/pkg/reconstruction"
)

// fakeResult builds a minimal result bundle with every channel populated
// except the electrostatic ones when withFlip is false.
func fakeResult(withFlip bool) *reconstruction.Result {
	const w, h = 8, 8
	ramp := func(off float64) []float64 {
		data := make([]float64, w*h)
		for i := range data {
			data[i] = off + float64(i)
		}
		return data
	}

	res := &reconstruction.Result{
		PhaseB:  ramp(0),
		DIdZB:   ramp(1),
		BxT:     ramp(2),
		ByT:     ramp(3),
		BMag:    ramp(4),
		InFocus: ramp(5),
		Width:   w,
		Height:  h,
		Defocus: 50,
		Index:   0,
		Warnings: []string{
			"no flip series: magnetic and electrostatic phase remain entangled in phase_b",
		},
	}
	if withFlip {
		res.PhaseE = ramp(6)
		res.DIdZE = ramp(7)
		res.Warnings = nil
	}
	return res
}

// TestWriteResult verifies that every channel and the parameters record land
// on disk.
func TestWriteResult(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)

	res := fakeResult(true)
	rec := Record{Method: "tie", DefocusNm: 50, ScaleNmPx: 2, Voltage: 200e3, Symmetrize: true}
	if err := w.WriteResult("run", res, rec); err != nil {
		t.Fatalf("WriteResult failed: %v", err)
	}

	for _, channel := range []string{
		"phase_b", "phase_e", "dIdZ_b", "dIdZ_e", "bxt", "byt", "bbt", "inf_im", "color_b",
	} {
		path := filepath.Join(dir, "run_"+channel+".png")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing channel file %s: %v", path, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "run_params.yaml"))
	if err != nil {
		t.Fatalf("missing parameters record: %v", err)
	}
	var loaded Record
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("parameters record does not parse: %v", err)
	}
	if loaded.Method != "tie" || loaded.DefocusNm != 50 || !loaded.Symmetrize {
		t.Errorf("parameters record = %+v", loaded)
	}
}

// TestWriteResultWithoutFlip verifies that the electrostatic channels are
// skipped and the warnings are recorded.
func TestWriteResultWithoutFlip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, true)

	if err := w.WriteResult("run", fakeResult(false), Record{Method: "tie"}); err != nil {
		t.Fatalf("WriteResult failed: %v", err)
	}

	for _, channel := range []string{"phase_e", "dIdZ_e"} {
		path := filepath.Join(dir, "run_"+channel+".png")
		if _, err := os.Stat(path); err == nil {
			t.Errorf("channel %s should be absent without a flip series", channel)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "run_params.yaml"))
	if err != nil {
		t.Fatalf("missing parameters record: %v", err)
	}
	var loaded Record
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("parameters record does not parse: %v", err)
	}
	if len(loaded.Warnings) != 1 {
		t.Errorf("warnings not recorded: %+v", loaded)
	}
}
