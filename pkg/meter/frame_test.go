package meter

import (
	"image"
	"image/color"
	"testing"
)

func TestNewFrame_Ready(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
		want  bool
	}{
		{name: "nil frame", frame: nil, want: false},
		{name: "zero width", frame: NewFrame(0, 10), want: false},
		{name: "zero height", frame: NewFrame(10, 0), want: false},
		{name: "negative size", frame: NewFrame(-4, 3), want: false},
		{name: "short buffer", frame: &Frame{Width: 10, Height: 10, Pix: make([]uint8, 10)}, want: false},
		{name: "one pixel", frame: NewFrame(1, 1), want: true},
		{name: "hd frame", frame: NewFrame(1280, 720), want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.frame.Ready(); got != tc.want {
				t.Errorf("Ready: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFromBGR_SwapsChannels(t *testing.T) {
	data := []byte{
		10, 20, 30, 40, 50, 60,
		70, 80, 90, 100, 110, 120,
	}
	f := FromBGR(2, 2, data)
	if !f.Ready() {
		t.Fatal("expected frame to be ready")
	}

	r, g, b := f.RGBAt(1, 1)
	if r != 120 || g != 110 || b != 100 {
		t.Errorf("RGBAt(1,1): got (%d,%d,%d), want (120,110,100)", r, g, b)
	}
	r, g, b = f.RGBAt(0, 0)
	if r != 30 || g != 20 || b != 10 {
		t.Errorf("RGBAt(0,0): got (%d,%d,%d), want (30,20,10)", r, g, b)
	}
}

func TestFromBGR_ShortBufferNotReady(t *testing.T) {
	f := FromBGR(4, 4, make([]byte, 5))
	if f.Ready() {
		t.Error("expected short BGR buffer to produce an unready frame")
	}
}

func TestFromImage(t *testing.T) {
	nrgba := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	nrgba.SetNRGBA(2, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	gray := image.NewGray(image.Rect(0, 0, 3, 2))
	gray.SetGray(2, 1, color.Gray{Y: 77})

	ycc := image.NewYCbCr(image.Rect(0, 0, 3, 2), image.YCbCrSubsampleRatio444)
	for i := range ycc.Y {
		ycc.Y[i] = 235
		ycc.Cb[i] = 128
		ycc.Cr[i] = 128
	}

	// Non-zero origin must be handled by the generic path.
	offset := image.NewRGBA64(image.Rect(5, 5, 8, 7))
	offset.SetRGBA64(7, 6, color.RGBA64{R: 0xFFFF, G: 0, B: 0, A: 0xFFFF})

	tests := []struct {
		name    string
		img     image.Image
		r, g, b uint8
	}{
		{name: "nrgba", img: nrgba, r: 200, g: 100, b: 50},
		{name: "gray", img: gray, r: 77, g: 77, b: 77},
		{name: "ycbcr", img: ycc, r: 235, g: 235, b: 235},
		{name: "offset rgba64", img: offset, r: 255, g: 0, b: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := FromImage(tc.img)
			if f.Width != 3 || f.Height != 2 {
				t.Fatalf("size: got %dx%d, want 3x2", f.Width, f.Height)
			}
			r, g, b := f.RGBAt(2, 1)
			if r != tc.r || g != tc.g || b != tc.b {
				t.Errorf("RGBAt(2,1): got (%d,%d,%d), want (%d,%d,%d)", r, g, b, tc.r, tc.g, tc.b)
			}
		})
	}
}

func TestFrame_ImageRoundTrip(t *testing.T) {
	f := NewFrame(4, 3)
	f.SetRGB(3, 2, 1, 2, 3)

	back := FromImage(f.Image())
	r, g, b := back.RGBAt(3, 2)
	if r != 1 || g != 2 || b != 3 {
		t.Errorf("round trip: got (%d,%d,%d), want (1,2,3)", r, g, b)
	}
}
