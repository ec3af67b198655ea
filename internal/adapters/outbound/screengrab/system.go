package screengrab

import (
	"image"

	"github.com/kbinani/screenshot"
)

// SystemGrabber captures real displays through the OS screenshot APIs.
type SystemGrabber struct{}

func (SystemGrabber) NumDisplays() int {
	return screenshot.NumActiveDisplays()
}

func (SystemGrabber) Capture(displayID int) (image.Image, error) {
	return screenshot.CaptureDisplay(displayID)
}
