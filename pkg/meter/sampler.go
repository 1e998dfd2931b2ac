package meter

import "math"

const (
	// WindowSize is the side of the square sample window in pixels.
	WindowSize = 20

	halfWindow = WindowSize / 2
)

// Rec.709 luma weights in ten-thousandths: 0.2126, 0.7152, 0.0722.
// Summing in integers keeps a uniform frame of value v at exactly v.
const (
	weightR   = 2126
	weightG   = 7152
	weightB   = 722
	weightSum = weightR + weightG + weightB
)

// Point is a tap location as a fraction of the displayed frame's width and height.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clamp returns p with both coordinates limited to [0, 1]. NaN maps to 0.
func (p Point) Clamp() Point {
	return Point{X: clamp01(p.X), Y: clamp01(p.Y)}
}

// Window is the pixel rectangle averaged by Sample.
type Window struct {
	X, Y int // top-left corner
	W, H int
}

// Empty reports whether the window has no pixels.
func (w Window) Empty() bool {
	return w.W <= 0 || w.H <= 0
}

// SampleWindow maps p onto a width x height frame and returns the window
// centered on it, cut back to the frame's bounds.
func SampleWindow(p Point, width, height int) Window {
	p = p.Clamp()
	px := int(math.Floor(p.X * float64(width)))
	py := int(math.Floor(p.Y * float64(height)))

	sx := max(0, px-halfWindow)
	sy := max(0, py-halfWindow)
	return Window{
		X: sx,
		Y: sy,
		W: min(WindowSize, width-sx),
		H: min(WindowSize, height-sy),
	}
}

// Luma returns the Rec.709 luminance of one pixel, in [0, 255].
func Luma(r, g, b uint8) float64 {
	return float64(weightR*int(r)+weightG*int(g)+weightB*int(b)) / weightSum
}

// Sample returns the mean Rec.709 luminance of the window around p, in [0, 255].
func Sample(f *Frame, p Point) (float64, error) {
	if !f.Ready() {
		return 0, ErrFrameNotReady
	}
	w := SampleWindow(p, f.Width, f.Height)
	if w.Empty() {
		return 0, ErrFrameNotReady
	}

	var sum int64
	for y := w.Y; y < w.Y+w.H; y++ {
		for x := w.X; x < w.X+w.W; x++ {
			r, g, b := f.RGBAt(x, y)
			sum += int64(weightR*int(r) + weightG*int(g) + weightB*int(b))
		}
	}
	count := int64(w.W * w.H)
	return float64(sum) / float64(count*weightSum), nil
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v >= 0 {
		return v
	}
	return 0
}
