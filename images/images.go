// Package images turns raster input into image XObject samples: PNG and
// BMP are decoded to 8-bit samples with a separate alpha channel, JPEG is
// passed through for DCTDecode, and the private image-stream container is
// read and written.
package images

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/wudi/pdfobj/filters"
	"github.com/wudi/pdfobj/ir/raw"
)

const (
	DeviceGray = "/DeviceGray"
	DeviceRGB  = "/DeviceRGB"
	DeviceCMYK = "/DeviceCMYK"
)

// maxPixels bounds width*height for decoded and container input.
const maxPixels = 1 << 28

// Image is the content of one image XObject.
type Image struct {
	Width      int
	Height     int
	ColorSpace string
	// Data holds uncompressed 8-bit samples, or the JPEG file when Filter
	// is /DCTDecode.
	Data   []byte
	Filter string
	// Alpha holds one uncompressed sample per pixel, written as /SMask.
	Alpha []byte
}

// Components is the number of samples per pixel.
func (img *Image) Components() int {
	switch img.ColorSpace {
	case DeviceGray:
		return 1
	case DeviceCMYK:
		return 4
	default:
		return 3
	}
}

// Passthrough reports whether Data is already encoded.
func (img *Image) Passthrough() bool { return img.Filter != "" }

// Decode reads PNG, BMP or JPEG bytes.
func Decode(data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("image dimensions %dx%d out of range", cfg.Width, cfg.Height)
	}
	if format == "jpeg" {
		cs := DeviceRGB
		switch cfg.ColorModel {
		case color.GrayModel:
			cs = DeviceGray
		case color.CMYKModel:
			cs = DeviceCMYK
		}
		return &Image{Width: cfg.Width, Height: cfg.Height, ColorSpace: cs, Data: data, Filter: "/DCTDecode"}, nil
	}
	if format != "png" && format != "bmp" {
		return nil, &raw.UnsupportedError{Feature: "image format", Value: format}
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return FromImage(src), nil
}

// FromImage converts src to 8-bit samples. Gray sources stay gray; alpha
// is kept only when some pixel is not opaque.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), src, b.Min, draw.Src)

	gray := false
	switch src.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		gray = true
	}

	img := &Image{Width: w, Height: h, ColorSpace: DeviceRGB}
	if gray {
		img.ColorSpace = DeviceGray
		img.Data = make([]byte, 0, w*h)
	} else {
		img.Data = make([]byte, 0, w*h*3)
	}
	alpha := make([]byte, 0, w*h)
	opaque := true
	for i := 0; i < w*h; i++ {
		px := nrgba.Pix[i*4 : i*4+4]
		if gray {
			img.Data = append(img.Data, px[0])
		} else {
			img.Data = append(img.Data, px[0], px[1], px[2])
		}
		alpha = append(alpha, px[3])
		if px[3] != 0xff {
			opaque = false
		}
	}
	if !opaque {
		img.Alpha = alpha
	}
	return img
}

// DecodeStream reads the image-stream container:
//
//	uint32 width, uint32 height
//	byte color components (1 or 3), byte alpha present (0 or 1)
//	uint32 length, deflated samples
//	uint32 length, deflated alpha (only when alpha is present)
func DecodeStream(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)
	var hdr struct {
		Width, Height uint32
		Components    byte
		HasAlpha      byte
	}
	if err := binary.Read(br, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("image stream header: %w", err)
	}
	if hdr.Width == 0 || hdr.Height == 0 || uint64(hdr.Width)*uint64(hdr.Height) > maxPixels {
		return nil, fmt.Errorf("image stream dimensions %dx%d out of range", hdr.Width, hdr.Height)
	}
	img := &Image{Width: int(hdr.Width), Height: int(hdr.Height)}
	switch hdr.Components {
	case 1:
		img.ColorSpace = DeviceGray
	case 3:
		img.ColorSpace = DeviceRGB
	default:
		return nil, &raw.UnsupportedError{Feature: "image stream color components", Value: fmt.Sprint(hdr.Components)}
	}
	pixels := int64(img.Width) * int64(img.Height)

	var err error
	if img.Data, err = readSamples(br, pixels*int64(hdr.Components)); err != nil {
		return nil, fmt.Errorf("image stream samples: %w", err)
	}
	if hdr.HasAlpha != 0 {
		if img.Alpha, err = readSamples(br, pixels); err != nil {
			return nil, fmt.Errorf("image stream alpha: %w", err)
		}
	}
	return img, nil
}

func readSamples(r io.Reader, want int64) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	comp := make([]byte, n)
	if _, err := io.ReadFull(r, comp); err != nil {
		return nil, err
	}
	data, err := filters.Inflate(comp, want)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != want {
		return nil, fmt.Errorf("%d samples, want %d", len(data), want)
	}
	return data, nil
}

// EncodeStream writes img in the format DecodeStream reads. Passthrough
// and CMYK images have no container form.
func EncodeStream(w io.Writer, img *Image) error {
	if img.Passthrough() {
		return &raw.UnsupportedError{Feature: "image stream filter", Value: img.Filter}
	}
	comps := img.Components()
	if comps == 4 {
		return &raw.UnsupportedError{Feature: "image stream color space", Value: img.ColorSpace}
	}
	var hasAlpha byte
	if img.Alpha != nil {
		hasAlpha = 1
	}
	bw := bufio.NewWriter(w)
	hdr := []interface{}{uint32(img.Width), uint32(img.Height), byte(comps), hasAlpha}
	for _, v := range hdr {
		if err := binary.Write(bw, binary.BigEndian, v); err != nil {
			return err
		}
	}
	blocks := [][]byte{img.Data}
	if img.Alpha != nil {
		blocks = append(blocks, img.Alpha)
	}
	for _, b := range blocks {
		comp := filters.Deflate(b)
		if err := binary.Write(bw, binary.BigEndian, uint32(len(comp))); err != nil {
			return err
		}
		if _, err := bw.Write(comp); err != nil {
			return err
		}
	}
	return bw.Flush()
}
