package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rentwheel/service-rental/internal/application"
)

func newTestStore(uploadPrefix string) *ImageKitStore {
	return NewImageKitStore(ImageKitOptions{
		PublicKey:    "public_key",
		PrivateKey:   "private_key",
		URLEndpoint:  "https://ik.imagekit.io/demo",
		UploadPrefix: uploadPrefix,
	}, zap.NewNop())
}

func TestImageKitStore_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "private_key", user)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "/cars", r.FormValue("folder"))
		assert.Equal(t, "corolla.jpg", r.FormValue("fileName"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"fileId":   "abc",
			"name":     "corolla_x1.jpg",
			"filePath": "/cars/corolla_x1.jpg",
			"url":      "https://ik.imagekit.io/demo/cars/corolla_x1.jpg",
		})
	}))
	defer srv.Close()

	url, err := newTestStore(srv.URL).Upload(context.Background(), "/cars",
		application.ImageFile{Name: "corolla.jpg", Data: []byte("jpeg-bytes")},
		application.ImageVariant{Width: 1280, Quality: "auto", Format: "webp"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "https://ik.imagekit.io/demo/tr:"), url)
	assert.True(t, strings.HasSuffix(url, "/cars/corolla_x1.jpg"), url)
	for _, part := range []string{"w-1280", "q-auto", "f-webp"} {
		assert.Contains(t, url, part)
	}
}

func TestImageKitStore_UploadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Your account cannot be authenticated."}`))
	}))
	defer srv.Close()

	_, err := newTestStore(srv.URL).Upload(context.Background(), "/cars",
		application.ImageFile{Name: "a.jpg", Data: []byte("x")}, application.ImageVariant{})
	require.Error(t, err)
}

func TestVariantURL(t *testing.T) {
	store := newTestStore("")

	url, err := store.VariantURL("/profiles/a.png", application.ImageVariant{Width: 200, Height: 200, Crop: "at_max"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://ik.imagekit.io/demo/tr:"), url)
	assert.True(t, strings.HasSuffix(url, "/profiles/a.png"), url)
	for _, part := range []string{"w-200", "h-200", "c-at_max"} {
		assert.Contains(t, url, part)
	}

	plain, err := store.VariantURL("/profiles/a.png", application.ImageVariant{})
	require.NoError(t, err)
	assert.Equal(t, "https://ik.imagekit.io/demo/profiles/a.png", plain)
}

func TestTransformation(t *testing.T) {
	assert.Empty(t, transformation(application.ImageVariant{}))
	assert.Equal(t, map[string]any{"width": 1280, "quality": "auto", "format": "webp"},
		transformation(application.ImageVariant{Width: 1280, Quality: "auto", Format: "webp"}))
}
