package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	MaxUploadSize  = 20 << 20
	MaxDimension   = 1600
	ThumbnailWidth = 320
	jpegQuality    = 82
)

var ErrNotAnImage = errors.New("uploaded file is not a supported image")

type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Stored is the pair of references kept for one uploaded image.
type Stored struct {
	Path          string
	ThumbnailPath string
}

type Processor struct {
	uploader Uploader
}

func NewProcessor(uploader Uploader) *Processor {
	return &Processor{uploader: uploader}
}

// ProcessFiles stores every file in order and fails on the first error.
func (p *Processor) ProcessFiles(ctx context.Context, prefix string, files []*multipart.FileHeader) ([]Stored, error) {
	out := make([]Stored, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		stored, err := p.Process(ctx, prefix, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		out = append(out, stored)
	}
	return out, nil
}

// Process recompresses the image to JPEG, builds a thumbnail and uploads both.
func (p *Processor) Process(ctx context.Context, prefix string, r io.Reader) (Stored, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return Stored{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(raw) > MaxUploadSize {
		return Stored{}, fmt.Errorf("image exceeds %d bytes", MaxUploadSize)
	}

	full, thumb, err := Transform(raw)
	if err != nil {
		return Stored{}, err
	}

	base := path.Join(prefix, time.Now().Format("2006/01"), uuid.NewString())
	fullURL, err := p.uploader.Upload(ctx, base+".jpg", full, "image/jpeg")
	if err != nil {
		return Stored{}, err
	}
	thumbURL, err := p.uploader.Upload(ctx, ThumbnailOf(base+".jpg"), thumb, "image/jpeg")
	if err != nil {
		return Stored{}, err
	}
	return Stored{Path: fullURL, ThumbnailPath: thumbURL}, nil
}

// ThumbnailOf maps a stored image key or URL to its thumbnail counterpart.
func ThumbnailOf(p string) string {
	return strings.TrimSuffix(p, ".jpg") + "_thumb.jpg"
}

// Transform returns the downscaled full image and its thumbnail, both JPEG encoded.
func Transform(raw []byte) ([]byte, []byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	full, err := encodeJPEG(fit(img, MaxDimension))
	if err != nil {
		return nil, nil, err
	}
	thumb, err := encodeJPEG(fitWidth(img, ThumbnailWidth))
	if err != nil {
		return nil, nil, err
	}
	return full, thumb, nil
}

// fit bounds the longest side to max, never upscaling.
func fit(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return img
	}
	if w >= h {
		return scale(img, max, h*max/w)
	}
	return scale(img, w*max/h, max)
}

func fitWidth(img image.Image, width int) image.Image {
	b := img.Bounds()
	if b.Dx() <= width {
		return img
	}
	return scale(img, width, b.Dy()*width/b.Dx())
}

func scale(img image.Image, w, h int) image.Image {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
