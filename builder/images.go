package builder

import (
	"fmt"

	"github.com/wudi/pdfobj/images"
	"github.com/wudi/pdfobj/ir/raw"
	"github.com/wudi/pdfobj/observability"
)

// Image is a registered image XObject.
type Image struct {
	num    int
	smask  int
	Width  int
	Height int
}

func (im *Image) ObjNumber() int { return im.num }

// SMaskObjNumber is 0 for opaque images.
func (im *Image) SMaskObjNumber() int { return im.smask }

// ResourceName is the key under /XObject in the resource dictionary.
func (im *Image) ResourceName() string { return "/Im" + itoa(im.num) }

// AddImage writes img, preceded by its soft mask when it has alpha.
func (d *Document) AddImage(img *images.Image) (*Image, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	s := writerSink{d.w}
	objs, im, err := imageObjects(img, s.next(), d.cfg.Compression)
	if err != nil {
		return nil, err
	}
	if err := putAll(s, objs); err != nil {
		return nil, err
	}
	d.images = append(d.images, im)
	d.log.Debug("image registered", observability.Object(im.num), observability.Bool("smask", im.smask != 0))
	return im, nil
}

// AddImageData decodes PNG, BMP or JPEG bytes and writes the result.
func (d *Document) AddImageData(data []byte) (*Image, error) {
	img, err := images.Decode(data)
	if err != nil {
		return nil, err
	}
	return d.AddImage(img)
}

func imageObjects(img *images.Image, first int, c Compression) ([]*raw.Object, *Image, error) {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return nil, nil, &raw.UnsupportedError{Feature: "image", Value: "empty"}
	}
	pixels := img.Width * img.Height
	if !img.Passthrough() && len(img.Data) != pixels*img.Components() {
		return nil, nil, &raw.UnsupportedError{Feature: "image sample count", Value: fmt.Sprintf("%d for %dx%d %s", len(img.Data), img.Width, img.Height, img.ColorSpace)}
	}
	if img.Alpha != nil && len(img.Alpha) != pixels {
		return nil, nil, &raw.UnsupportedError{Feature: "image alpha count", Value: fmt.Sprintf("%d for %dx%d", len(img.Alpha), img.Width, img.Height)}
	}

	im := &Image{Width: img.Width, Height: img.Height, num: first}
	var objs []*raw.Object
	if img.Alpha != nil {
		im.smask, im.num = first, first+1
		mask, err := streamObject(c, dict("<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8 >>",
			img.Width, img.Height), img.Alpha)
		if err != nil {
			return nil, nil, err
		}
		objs = append(objs, mask)
	}

	d := dict("<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace %s /BitsPerComponent 8 >>",
		img.Width, img.Height, img.ColorSpace)
	var obj *raw.Object
	if img.Passthrough() {
		obj = raw.NewObject(d, img.Data)
		obj.Edit().Set("/Filter", img.Filter)
		obj.Edit().SetInt("/Length", len(img.Data))
	} else {
		var err error
		if obj, err = streamObject(c, d, img.Data); err != nil {
			return nil, nil, err
		}
	}
	if im.smask != 0 {
		obj.Edit().Set("/SMask", raw.RefTokens(im.smask)...)
	}
	return append(objs, obj), im, nil
}
