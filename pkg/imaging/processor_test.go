package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUploader struct {
	objects map[string][]byte
	fail    error
}

func (m *memoryUploader) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	if m.fail != nil {
		return "", m.fail
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestTransform_ScalesAndThumbnails(t *testing.T) {
	full, thumb, err := Transform(pngOf(t, 3200, 1600))
	require.NoError(t, err)

	fullCfg, err := jpeg.DecodeConfig(bytes.NewReader(full))
	require.NoError(t, err)
	assert.Equal(t, MaxDimension, fullCfg.Width)
	assert.Equal(t, 800, fullCfg.Height)

	thumbCfg, err := jpeg.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, ThumbnailWidth, thumbCfg.Width)
	assert.Equal(t, 160, thumbCfg.Height)
}

func TestTransform_SmallImageIsNotUpscaled(t *testing.T) {
	_, thumb, err := Transform(pngOf(t, 100, 50))
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
}

func TestTransform_RejectsNonImage(t *testing.T) {
	_, _, err := Transform([]byte("definitely not a picture"))
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestProcess_UploadsPair(t *testing.T) {
	up := &memoryUploader{}
	p := NewProcessor(up)

	stored, err := p.Process(context.Background(), "listings", bytes.NewReader(pngOf(t, 400, 300)))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.Path, "https://cdn.test/listings/"))
	assert.Equal(t, ThumbnailOf(stored.Path), stored.ThumbnailPath)
	assert.Len(t, up.objects, 2)
}

func TestProcess_UploadFailureAborts(t *testing.T) {
	p := NewProcessor(&memoryUploader{fail: errors.New("s3 down")})

	_, err := p.Process(context.Background(), "listings", bytes.NewReader(pngOf(t, 10, 10)))
	assert.EqualError(t, err, "s3 down")
}
