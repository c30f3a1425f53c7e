package covers

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUploader_Success(t *testing.T) {
	var gotPreset string
	var gotFile []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotPreset = r.FormValue("upload_preset")

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFile, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://img.example.com/covers/abc.png"}`))
	}))
	defer server.Close()

	uploader := NewUploader(server.URL, "bookcase-unsigned", testLogger())
	require.True(t, uploader.Configured())

	url, err := uploader.Upload(context.Background(), "cover.png", []byte("image-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/covers/abc.png", url)
	assert.Equal(t, "bookcase-unsigned", gotPreset)
	assert.Equal(t, []byte("image-bytes"), gotFile)
}

func TestUploader_HostError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer server.Close()

	uploader := NewUploader(server.URL, "missing-preset", testLogger())

	_, err := uploader.Upload(context.Background(), "cover.png", []byte("image-bytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Upload preset not found")
}

func TestUploader_NotConfigured(t *testing.T) {
	uploader := NewUploader("", "", testLogger())
	assert.False(t, uploader.Configured())
}

func TestGenerator_Success(t *testing.T) {
	imageBytes := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req struct {
			Inputs string `json:"inputs"`
		}
		require.NoError(t, json.UnmarshalRead(r.Body, &req))
		assert.Equal(t, "a lighthouse at dusk, book cover", req.Inputs)

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(imageBytes)
	}))
	defer server.Close()

	generator := NewGenerator(server.URL, "test-token", testLogger())
	require.True(t, generator.Configured())

	data, err := generator.Generate(context.Background(), "a lighthouse at dusk, book cover")
	require.NoError(t, err)
	assert.Equal(t, imageBytes, data)
}

func TestGenerator_ModelError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
	}))
	defer server.Close()

	generator := NewGenerator(server.URL, "test-token", testLogger())

	_, err := generator.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Model is currently loading")
}

func TestGenerator_NotConfigured(t *testing.T) {
	generator := NewGenerator("", "", testLogger())
	assert.False(t, generator.Configured())
}

func TestComputeBlurHash(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 180))
	for y := 0; y < 180; y++ {
		for x := 0; x < 120; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	hash, err := ComputeBlurHash(buf.Bytes())
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	// Deterministic for the same input.
	again, err := ComputeBlurHash(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, hash, again)
}

func TestComputeBlurHash_InvalidImage(t *testing.T) {
	_, err := ComputeBlurHash([]byte("not an image"))
	assert.Error(t, err)
}
