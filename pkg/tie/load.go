package tie

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	// Decoders for the formats electron-microscopy stacks are usually
	// exported in. TIFF is the common case; PNG and JPEG cover converted
	// data.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
)

// LoadStack reads every supported image file in dir, sorts them by the number
// embedded in their filenames, and returns them as a stack of normalized
// intensity frames. All images must share one pixel geometry.
func LoadStack(dir string) (*ImageStack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading stack directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".tif", ".tiff", ".png", ".jpg", ".jpeg":
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files in %s: %w", dir, ErrInsufficientData)
	}

	// Sort by the number embedded in the filename so the focal order of
	// the series is preserved regardless of zero padding.
	sort.Slice(files, func(i, j int) bool {
		return extractNumber(files[i]) < extractNumber(files[j])
	})

	var stack *ImageStack
	for _, name := range files {
		frame, w, h, err := loadFrame(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", name, err)
		}
		if stack == nil {
			stack, err = NewImageStack(w, h)
			if err != nil {
				return nil, err
			}
		} else if w != stack.Width || h != stack.Height {
			return nil, fmt.Errorf("%s is %dx%d, stack is %dx%d: %w",
				name, w, h, stack.Width, stack.Height, ErrDimensionMismatch)
		}
		if err := stack.Append(frame); err != nil {
			return nil, err
		}
	}
	return stack, nil
}

// loadFrame decodes one image file into a normalized grayscale float frame.
func loadFrame(path string) ([]float64, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, err
	}

	frame, w, h := imageToFloat(img)
	return frame, w, h, nil
}

// imageToFloat converts an image to a row-major float frame in [0, 1] using
// the red channel of the 16-bit representation, which is the luminance for
// grayscale microscopy data.
func imageToFloat(img image.Image) ([]float64, int, int) {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	frame := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			frame[y*w+x] = float64(r) / 65535.0
		}
	}
	return frame, w, h
}

// extractNumber pulls the numeric part out of a filename, returning 0 when no
// digits are present.
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}
	if numStr != "" {
		if num, err := strconv.Atoi(numStr); err == nil {
			return num
		}
	}
	return 0
}
