package meter

import (
	"image"
	"image/color"
)

// Frame is a decoded camera frame stored as packed 8-bit RGB.
type Frame struct {
	Width  int
	Height int
	Stride int // bytes per row
	Pix    []uint8
}

// NewFrame allocates a black frame of the given size.
func NewFrame(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Frame{
		Width:  width,
		Height: height,
		Stride: width * 3,
		Pix:    make([]uint8, width*height*3),
	}
}

// Ready reports whether the frame has pixels to sample.
func (f *Frame) Ready() bool {
	if f == nil || f.Width <= 0 || f.Height <= 0 {
		return false
	}
	stride := f.stride()
	return len(f.Pix) >= (f.Height-1)*stride+f.Width*3
}

func (f *Frame) stride() int {
	if f.Stride > 0 {
		return f.Stride
	}
	return f.Width * 3
}

// RGBAt returns the channels of the pixel at (x, y). The caller keeps x, y in range.
func (f *Frame) RGBAt(x, y int) (r, g, b uint8) {
	i := y*f.stride() + x*3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// SetRGB sets the pixel at (x, y).
func (f *Frame) SetRGB(x, y int, r, g, b uint8) {
	i := y*f.stride() + x*3
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, b
}

// Fill paints every pixel with the same color.
func (f *Frame) Fill(r, g, b uint8) {
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			f.SetRGB(x, y, r, g, b)
		}
	}
}

// FromImage copies img into a new Frame. Alpha is dropped; premultiplied
// colors are used as-is, matching what a canvas readback yields for opaque video.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())
	switch src := img.(type) {
	case *image.RGBA:
		for y := 0; y < f.Height; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < f.Width; x++ {
				f.SetRGB(x, y, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	case *image.NRGBA:
		for y := 0; y < f.Height; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < f.Width; x++ {
				f.SetRGB(x, y, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	case *image.Gray:
		for y := 0; y < f.Height; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < f.Width; x++ {
				v := row[x]
				f.SetRGB(x, y, v, v, v)
			}
		}
	default:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
				f.SetRGB(x, y, c.R, c.G, c.B)
			}
		}
	}
	return f
}

// FromBGR wraps packed BGR bytes, as produced by OpenCV, into a new RGB Frame.
// A short buffer yields a frame that is not Ready.
func FromBGR(width, height int, data []byte) *Frame {
	if width <= 0 || height <= 0 || len(data) < width*height*3 {
		return &Frame{Width: width, Height: height}
	}
	f := NewFrame(width, height)
	for i := 0; i+2 < len(f.Pix); i += 3 {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = data[i+2], data[i+1], data[i]
	}
	return f
}

// Image returns an RGBA copy of the frame, for encoding previews.
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	if !f.Ready() {
		return img
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := f.RGBAt(x, y)
			i := y*img.Stride + x*4
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 0xFF
		}
	}
	return img
}
