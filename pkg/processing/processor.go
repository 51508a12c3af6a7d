package processing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Maximum long side and JPEG quality used when preparing an image for the
// vision interpreter. Larger uploads are thumbnailed down to keep the payload
// within the model's input limits.
const (
	ModelMaxSide     = 1024
	ModelJPEGQuality = 85
)

// Processor handles image loading and conversion for the analysis pipeline.
type Processor struct{}

// NewProcessor creates a new image processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// LoadImage loads an image from a file path with WebP support.
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// PrepareImageForModel resizes img so its long side is at most ModelMaxSide,
// encodes it as JPEG and returns the base64 payload sent to the vision
// interpreter.
func (p *Processor) PrepareImageForModel(img image.Image) (string, error) {
	bounds := img.Bounds()
	if bounds.Dx() > ModelMaxSide || bounds.Dy() > ModelMaxSide {
		img = imaging.Fit(img, ModelMaxSide, ModelMaxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: ModelJPEGQuality}); err != nil {
		return "", fmt.Errorf("failed to encode image for model: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// PrepareFileForModel loads the image at path and prepares it for the model.
func (p *Processor) PrepareFileForModel(path string) (string, error) {
	img, err := p.LoadImage(path)
	if err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}
	return p.PrepareImageForModel(img)
}

// SaveImage writes img to path, choosing the encoder from the extension.
func (p *Processor) SaveImage(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(path[strings.LastIndex(path, ".")+1:])
	switch ext {
	case "jpg", "jpeg":
		return jpeg.Encode(f, img, &jpeg.Options{Quality: ModelJPEGQuality})
	case "png":
		return png.Encode(f, img)
	case "webp":
		return webp.Encode(f, img, &webp.Options{Quality: float32(ModelJPEGQuality)})
	default:
		return fmt.Errorf("unsupported output format: %s", ext)
	}
}

// ImageSize returns the pixel dimensions of the image at path without
// decoding the full pixel data.
func ImageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image size of %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}
