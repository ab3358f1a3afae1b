// Package visionrepair implements the vision-based two-step repair flow:
// a diagnosis call that sees the rendered screenshot, followed by a repair
// call that sees both the diagnosis and the same screenshot. Grounded on
// validation/fixer.py's DirectFixer.repair_with_vision.
package visionrepair

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
)

const maxDimension = 1568 // matches the original's resize_image_for_api default

// optimizeScreenshot downsizes a PNG screenshot so neither dimension
// exceeds maxDimension, grounded on resize_image_for_api. Images already
// within bounds are returned unchanged.
func optimizeScreenshot(png_ []byte) []byte {
	img, err := png.Decode(bytes.NewReader(png_))
	if err != nil {
		return png_
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDimension && h <= maxDimension {
		return png_
	}

	scale := float64(maxDimension) / float64(w)
	if hs := float64(maxDimension) / float64(h); hs < scale {
		scale = hs
	}
	newW, newH := int(float64(w)*scale), int(float64(h)*scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			srcX := bounds.Min.X + x*w/newW
			srcY := bounds.Min.Y + y*h/newH
			dst.Set(x, y, img.At(srcX, srcY))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return png_
	}
	return buf.Bytes()
}

// toDataURL encodes PNG bytes as a data: URL suitable for Request.ImageURL,
// grounded on image_to_base64.
func toDataURL(pngBytes []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}
