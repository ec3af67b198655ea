package screengrab

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/vpinfe/score-tracker/internal/config"
)

type fakeGrabber struct {
	displays int
	captured int
}

func (f *fakeGrabber) NumDisplays() int { return f.displays }

func (f *fakeGrabber) Capture(displayID int) (image.Image, error) {
	f.captured = displayID
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func intPtr(n int) *int { return &n }

func TestTargetPriority(t *testing.T) {
	cases := []struct {
		name string
		d    config.DisplaySettings
		num  int
		want int
	}{
		{"dmd first", config.DisplaySettings{DMDScreenID: intPtr(2), BGScreenID: intPtr(1)}, 3, 2},
		{"bg when no dmd", config.DisplaySettings{BGScreenID: intPtr(1)}, 3, 1},
		{"primary when unconfigured", config.DisplaySettings{}, 3, 0},
		{"out of range falls back", config.DisplaySettings{DMDScreenID: intPtr(7)}, 2, 0},
		{"negative falls back", config.DisplaySettings{DMDScreenID: intPtr(-1)}, 2, 0},
	}
	for _, c := range cases {
		if got := Target(c.d, c.num); got != c.want {
			t.Errorf("%s: Target = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestCaptureUsesTargetDisplay(t *testing.T) {
	g := &fakeGrabber{displays: 3}
	d := config.DisplaySettings{DMDScreenID: intPtr(2)}

	img, err := Capture(g, d)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if img == nil {
		t.Fatal("nil image")
	}
	if g.captured != 2 {
		t.Errorf("captured display %d, want 2", g.captured)
	}
}

func TestCaptureNoDisplays(t *testing.T) {
	g := &fakeGrabber{displays: 0}
	if _, err := Capture(g, config.DisplaySettings{}); err == nil {
		t.Error("expected an error with no attached displays")
	}
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("output is not valid PNG: %v", err)
	}
}
