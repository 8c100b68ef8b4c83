package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaDir             = "media"
	DefaultImageMaxUploadSizeMB = 10
	ThumbnailMaxSize            = 960
	WebPQuality                 = 70

	postImageDir = "posts"
	thumbDir     = "thumbs"
)

// InvalidImageMessage is the form message for uploads that do not decode as an image.
const InvalidImageMessage = "uploaded file is corrupted or not an image"

// ImageStore persists post images under the media root.
type ImageStore interface {
	// Save validates content and returns its path relative to the media root.
	Save(ctx context.Context, content []byte) (string, error)
	Remove(rel string)
}

// ImageService stores uploaded post images together with a WebP thumbnail.
type ImageService struct {
	mediaDir           string
	maxUploadSizeBytes int64
}

func NewImageService(cfg *config.Config) *ImageService {
	mediaDir := DefaultMediaDir
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB

	if cfg != nil {
		if cfg.MediaDir != "" {
			mediaDir = cfg.MediaDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}

	return &ImageService{
		mediaDir:           mediaDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// DecodeImage reports a field error on "image" unless content is a supported image.
func DecodeImage(content []byte) (image.Image, string, error) {
	if len(content) == 0 || !isAllowedImageMIME(http.DetectContentType(content)) {
		return nil, "", models.NewFieldError("image", InvalidImageMessage)
	}
	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil || !isSupportedDecodedFormat(format) {
		return nil, "", models.NewFieldError("image", InvalidImageMessage)
	}
	return decoded, format, nil
}

func (s *ImageService) Save(ctx context.Context, content []byte) (string, error) {
	if int64(len(content)) > s.maxUploadSizeBytes {
		return "", models.NewFieldError("image",
			fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	decoded, format, err := DecodeImage(content)
	if err != nil {
		return "", err
	}

	name := uuid.NewString()
	rel := path.Join(postImageDir, name+"."+formatExtension(format))
	if err := writeBytesToFile(s.abs(rel), content); err != nil {
		return "", models.NewInternalError(err)
	}

	thumb, err := encodeWebP(resizeToFit(decoded, ThumbnailMaxSize, ThumbnailMaxSize), WebPQuality)
	if err == nil {
		err = writeBytesToFile(s.abs(ThumbnailPath(rel)), thumb)
	}
	if err != nil {
		// The original is enough to display the post.
		middleware.Logger.WarnContext(ctx, "thumbnail generation failed", "image", rel, "error", err)
	}
	return rel, nil
}

// Remove deletes an image and its thumbnail. Missing files are ignored.
func (s *ImageService) Remove(rel string) {
	if rel == "" {
		return
	}
	for _, p := range []string{s.abs(rel), s.abs(ThumbnailPath(rel))} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			middleware.Logger.Warn("failed to remove image file", "path", p, "error", err)
		}
	}
}

func (s *ImageService) abs(rel string) string {
	return filepath.Join(s.mediaDir, filepath.FromSlash(rel))
}

// ThumbnailPath maps "posts/<name>.<ext>" to "posts/thumbs/<name>.webp".
func ThumbnailPath(rel string) string {
	dir, file := path.Split(rel)
	return path.Join(dir, thumbDir, strings.TrimSuffix(file, path.Ext(file))+".webp")
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func formatExtension(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}

func writeBytesToFile(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o600)
}
