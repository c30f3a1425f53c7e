package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookcaseapp/bookcase-server/internal/covers"
	domainerrors "github.com/bookcaseapp/bookcase-server/internal/errors"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y * 5), B: uint8(x * 7), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCoverUpload(t *testing.T) {
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://img.example.com/covers/xyz.png"}`))
	}))
	defer host.Close()

	svc := NewCoverService(
		covers.NewUploader(host.URL, "unsigned", discardLogger()),
		covers.NewGenerator("", "", discardLogger()),
		discardLogger(),
	)

	result, err := svc.Upload(context.Background(), "cover.png", pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/covers/xyz.png", result.URL)
	assert.NotEmpty(t, result.BlurHash)
}

func TestCoverUpload_UndecodableImageStillUploads(t *testing.T) {
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://img.example.com/covers/xyz.bin"}`))
	}))
	defer host.Close()

	svc := NewCoverService(
		covers.NewUploader(host.URL, "unsigned", discardLogger()),
		covers.NewGenerator("", "", discardLogger()),
		discardLogger(),
	)

	// BlurHash failure is tolerated; the host decides what it accepts.
	result, err := svc.Upload(context.Background(), "cover.bin", []byte("opaque bytes"))
	require.NoError(t, err)
	assert.Empty(t, result.BlurHash)
	assert.NotEmpty(t, result.URL)
}

func TestCoverUpload_NotConfigured(t *testing.T) {
	svc := NewCoverService(
		covers.NewUploader("", "", discardLogger()),
		covers.NewGenerator("", "", discardLogger()),
		discardLogger(),
	)

	_, err := svc.Upload(context.Background(), "cover.png", []byte("data"))
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)
}

func TestCoverGenerate_Pipeline(t *testing.T) {
	imageData := pngBytes(t)

	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(imageData)
	}))
	defer model.Close()

	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://img.example.com/covers/gen.png"}`))
	}))
	defer host.Close()

	svc := NewCoverService(
		covers.NewUploader(host.URL, "unsigned", discardLogger()),
		covers.NewGenerator(model.URL, "token", discardLogger()),
		discardLogger(),
	)

	result, err := svc.Generate(context.Background(), "a lighthouse at dusk")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/covers/gen.png", result.URL)
	assert.NotEmpty(t, result.BlurHash)
}

func TestCoverGenerate_EmptyPrompt(t *testing.T) {
	svc := NewCoverService(
		covers.NewUploader("http://host", "unsigned", discardLogger()),
		covers.NewGenerator("http://model", "token", discardLogger()),
		discardLogger(),
	)

	_, err := svc.Generate(context.Background(), "   ")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestCoverGenerate_NotConfigured(t *testing.T) {
	svc := NewCoverService(
		covers.NewUploader("http://host", "unsigned", discardLogger()),
		covers.NewGenerator("", "", discardLogger()),
		discardLogger(),
	)

	_, err := svc.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)
}
