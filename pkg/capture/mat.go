package capture

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-filmmeter/pkg/meter"
)

// FrameFromMat copies an 8-bit BGR or grayscale Mat into a Frame.
func FrameFromMat(mat gocv.Mat) (*meter.Frame, error) {
	if mat.Empty() {
		return nil, meter.ErrFrameNotReady
	}

	src := mat
	switch mat.Type() {
	case gocv.MatTypeCV8UC3:
	case gocv.MatTypeCV8UC1:
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(mat, &bgr, gocv.ColorGrayToBGR)
		src = bgr
	case gocv.MatTypeCV8UC4:
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(mat, &bgr, gocv.ColorBGRAToBGR)
		src = bgr
	default:
		return nil, fmt.Errorf("capture: unsupported mat type %v", mat.Type())
	}

	f := meter.FromBGR(src.Cols(), src.Rows(), src.ToBytes())
	if !f.Ready() {
		return nil, meter.ErrFrameNotReady
	}
	return f, nil
}

// MatFromFrame builds a BGR Mat for display. The caller closes it.
func MatFromFrame(f *meter.Frame) (gocv.Mat, error) {
	if !f.Ready() {
		return gocv.NewMat(), meter.ErrFrameNotReady
	}
	bgr := make([]byte, f.Width*f.Height*3)
	i := 0
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := f.RGBAt(x, y)
			bgr[i], bgr[i+1], bgr[i+2] = b, g, r
			i += 3
		}
	}
	return gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, bgr)
}
