package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Processor validates and stores uploaded recipe photos.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	return &Processor{
		storage: storage,
		logger:  logger,
	}
}

// Process validates uploaded image data, stores it under a fresh
// uuid-based filename, and computes its BlurHash placeholder.
// Returns the stored filename and the hash.
func (p *Processor) Process(data []byte) (filename, blurHash string, err error) {
	ext := DetectImageType(data)
	if ext == "" {
		return "", "", fmt.Errorf("unsupported image format")
	}

	// Fully decode to reject files that merely carry an image signature.
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("decode image: %w", err)
	}

	filename = uuid.New().String() + ext

	if err := p.storage.Save(filename, data); err != nil {
		return "", "", err
	}

	blurHash, err = ComputeBlurHash(img)
	if err != nil {
		// The image is stored and servable; the placeholder is best effort.
		p.logger.Warn("blurhash computation failed",
			"filename", filename,
			"error", err,
		)
		blurHash = ""
	}

	p.logger.Debug("stored recipe image",
		"filename", filename,
		"format", format,
		"size", len(data),
	)

	return filename, blurHash, nil
}

// DetectImageType sniffs the magic bytes of an uploaded file and
// returns the matching file extension, or "" when the format is not an
// accepted image type.
func DetectImageType(data []byte) string {
	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return ".jpg"
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return ".png"
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return ".gif"
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return ".webp"
	default:
		return ""
	}
}
