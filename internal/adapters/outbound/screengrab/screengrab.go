package screengrab

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/vpinfe/score-tracker/internal/config"
)

// Grabber captures a raster image of one display. The system implementation
// lives in system.go; tests substitute fakes.
type Grabber interface {
	NumDisplays() int
	Capture(displayID int) (image.Image, error)
}

// Target picks the display to capture. Priority: configured DMD display,
// then configured BG display, then the primary display (0). A configured id
// outside the attached range falls back to primary.
func Target(d config.DisplaySettings, numDisplays int) int {
	for _, id := range []*int{d.DMDScreenID, d.BGScreenID} {
		if id == nil {
			continue
		}
		if *id >= 0 && *id < numDisplays {
			return *id
		}
		return 0
	}
	return 0
}

// Capture grabs the configured display as an in-memory image.
func Capture(g Grabber, d config.DisplaySettings) (image.Image, error) {
	n := g.NumDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no displays attached")
	}
	id := Target(d, n)
	img, err := g.Capture(id)
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", id, err)
	}
	return img, nil
}

// EncodePNG encodes the screenshot losslessly for upload.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
