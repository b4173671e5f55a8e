// Package storage uploads images to ImageKit and builds delivery URLs.
package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/imagekit-developer/imagekit-go"
	"github.com/imagekit-developer/imagekit-go/api/uploader"
	"github.com/imagekit-developer/imagekit-go/config"
	ikurl "github.com/imagekit-developer/imagekit-go/url"
	"go.uber.org/zap"

	"github.com/rentwheel/service-rental/internal/application"
)

// ImageKitOptions holds the account settings for the SDK client.
type ImageKitOptions struct {
	PublicKey   string
	PrivateKey  string
	URLEndpoint string

	// UploadPrefix replaces the upload API base, e.g. for a local stub.
	UploadPrefix string
}

// ImageKitStore implements application.ImageStore on the ImageKit SDK.
type ImageKitStore struct {
	ik     *imagekit.ImageKit
	logger *zap.Logger
}

// NewImageKitStore creates a store. URLEndpoint is the account's delivery
// base, for example https://ik.imagekit.io/rentwheel.
func NewImageKitStore(opts ImageKitOptions, logger *zap.Logger) *ImageKitStore {
	cfg := config.NewFromParams(opts.PrivateKey, opts.PublicKey, strings.TrimRight(opts.URLEndpoint, "/")+"/")
	if opts.UploadPrefix != "" {
		cfg.API.UploadPrefix = strings.TrimRight(opts.UploadPrefix, "/") + "/"
	}
	return &ImageKitStore{ik: imagekit.NewFromConfiguration(cfg), logger: logger}
}

// Upload stores file under folder and returns the URL of variant.
func (s *ImageKitStore) Upload(ctx context.Context, folder string, file application.ImageFile, variant application.ImageVariant) (string, error) {
	resp, err := s.ik.Uploader.Upload(ctx, base64.StdEncoding.EncodeToString(file.Data), uploader.UploadParam{
		FileName: file.Name,
		Folder:   folder,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	if resp.Data.FilePath == "" {
		return "", fmt.Errorf("upload response has no file path")
	}

	s.logger.Debug("image uploaded", zap.String("file_id", resp.Data.FileId), zap.String("path", resp.Data.FilePath))
	return s.VariantURL(resp.Data.FilePath, variant)
}

// VariantURL builds a path-style transformation URL for filePath.
func (s *ImageKitStore) VariantURL(filePath string, variant application.ImageVariant) (string, error) {
	params := ikurl.UrlParam{Path: filePath}
	if tr := transformation(variant); len(tr) > 0 {
		params.Transformations = []map[string]any{tr}
	}
	url, err := s.ik.Url(params)
	if err != nil {
		return "", fmt.Errorf("failed to build image URL: %w", err)
	}
	return url, nil
}

func transformation(v application.ImageVariant) map[string]any {
	tr := make(map[string]any)
	if v.Width > 0 {
		tr["width"] = v.Width
	}
	if v.Height > 0 {
		tr["height"] = v.Height
	}
	if v.Crop != "" {
		tr["crop"] = v.Crop
	}
	if v.Quality != "" {
		tr["quality"] = v.Quality
	}
	if v.Format != "" {
		tr["format"] = v.Format
	}
	return tr
}
