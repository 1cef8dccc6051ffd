// Package visualization persists reconstruction results: one image file per
// named channel plus a plain-text parameters record. This is an output
// convenience for hosts that want results on disk; the core packages never
// require it.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"lorentztie/pkg/colorwheel"
	"lorentztie/pkg/reconstruction"
)

// Record is the parameters block written next to the channel images.
type Record struct {
	Method     string   `yaml:"method"`
	DefocusNm  float64  `yaml:"defocusNm"`
	Index      int      `yaml:"defocusIndex"`
	ScaleNmPx  float64  `yaml:"scaleNmPerPixel"`
	Voltage    float64  `yaml:"voltage"`
	Symmetrize bool     `yaml:"symmetrize"`
	Cutoff     float64  `yaml:"tikhonovCutoff"`
	Warnings   []string `yaml:"warnings,omitempty"`
}

// Writer saves result bundles under one output directory.
type Writer struct {
	outDir   string
	fourFold bool
}

// NewWriter creates a writer rooted at outDir. fourFold selects the color
// wheel used for the color_b channel.
func NewWriter(outDir string, fourFold bool) *Writer {
	return &Writer{outDir: outDir, fourFold: fourFold}
}

// WriteResult saves every channel of res under prefix: float channels as
// 16-bit grayscale PNGs normalized to their own range, the induction color
// map as RGB PNG, and the parameters record as YAML.
func (w *Writer) WriteResult(prefix string, res *reconstruction.Result, rec Record) error {
	if err := os.MkdirAll(w.outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	channels := map[string][]float64{
		"phase_b": res.PhaseB,
		"phase_e": res.PhaseE,
		"dIdZ_b":  res.DIdZB,
		"dIdZ_e":  res.DIdZE,
		"bxt":     res.BxT,
		"byt":     res.ByT,
		"bbt":     res.BMag,
		"inf_im":  res.InFocus,
	}
	for name, data := range channels {
		if data == nil {
			// Channels absent without a flip series.
			continue
		}
		path := w.path(prefix, name)
		if err := writeGrayPNG(path, data, res.Width, res.Height); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	colorIm, err := colorwheel.Color(res.BxT, res.ByT, res.Width, res.Height,
		colorwheel.Options{FourFold: w.fourFold})
	if err != nil {
		return fmt.Errorf("rendering color_b: %w", err)
	}
	if err := writePNG(w.path(prefix, "color_b"), colorIm); err != nil {
		return fmt.Errorf("writing color_b: %w", err)
	}

	rec.Warnings = res.Warnings
	data, err := yaml.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("marshaling parameters record: %w", err)
	}
	recPath := filepath.Join(w.outDir, fmt.Sprintf("%s_params.yaml", prefix))
	if err := os.WriteFile(recPath, data, 0644); err != nil {
		return fmt.Errorf("writing parameters record: %w", err)
	}
	return nil
}

func (w *Writer) path(prefix, channel string) string {
	return filepath.Join(w.outDir, fmt.Sprintf("%s_%s.png", prefix, channel))
}

// writeGrayPNG normalizes a float channel to its min/max range and writes it
// as a 16-bit grayscale PNG.
func writeGrayPNG(path string, data []float64, width, height int) error {
	lo := floats.Min(data)
	hi := floats.Max(data)
	span := hi - lo
	if span == 0 {
		span = 1
	}

	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := (data[y*width+x] - lo) / span
			img.SetGray16(x, y, color.Gray16{Y: uint16(v*65535 + 0.5)})
		}
	}
	return writePNG(path, img)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
