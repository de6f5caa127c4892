package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var ErrNotAnImage = errors.New("file is not a supported image")

// Result - нормализованное изображение
type Result struct {
	Data        []byte
	Width       int
	Height      int
	ContentType string
	Ext         string
}

// Processor приводит изображения профилей к JPEG с ограничением по большей стороне
type Processor struct {
	quality int // JPEG quality (1-100)
	maxSide int
}

// NewProcessor creates a new image processor
func NewProcessor(quality, maxSide int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	if maxSide <= 0 {
		maxSide = 1600
	}
	return &Processor{quality: quality, maxSide: maxSide}
}

// Normalize декодирует jpeg/png/gif/webp, уменьшает (никогда не увеличивает)
// и кодирует в JPEG на белом фоне.
func (p *Processor) Normalize(reader io.Reader) (*Result, error) {
	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	w, h := fitWithin(img.Bounds().Dx(), img.Bounds().Dy(), p.maxSide)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	return &Result{
		Data:        buf.Bytes(),
		Width:       w,
		Height:      h,
		ContentType: "image/jpeg",
		Ext:         ".jpg",
	}, nil
}

// fitWithin сохраняет пропорции, большая сторона <= maxSide
func fitWithin(width, height, maxSide int) (int, int) {
	if width <= maxSide && height <= maxSide {
		return width, height
	}
	if width >= height {
		nh := int(float64(height) * float64(maxSide) / float64(width))
		if nh < 1 {
			nh = 1
		}
		return maxSide, nh
	}
	nw := int(float64(width) * float64(maxSide) / float64(height))
	if nw < 1 {
		nw = 1
	}
	return nw, maxSide
}

// IsValidImage checks if the reader contains a decodable image
func IsValidImage(reader io.Reader) bool {
	_, _, err := image.DecodeConfig(reader)
	return err == nil
}
