package images

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"

	"github.com/inkwellapp/inkwell-server/internal/id"
)

// maxImageBytes caps uploads at 10MB. Plenty for a post header image and
// stops someone filling the disk through the upload endpoint.
const maxImageBytes = 10 << 20

// ProcessedImage describes a validated and stored upload.
type ProcessedImage struct {
	Filename string // stored filename, e.g. "img-V1StGXR8i.jpg"
	Format   string // decoded format: jpeg, png, gif, webp
	BlurHash string // low-res placeholder hash
	Hash     string // SHA256 of the stored bytes, for cache validation
}

// Processor validates uploaded post images and stores them.
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

// Process validates image data, stores it under a generated filename, and
// computes its BlurHash placeholder. The upload must decode as one of the
// registered formats (JPEG, PNG, GIF, WebP).
func (p *Processor) Process(imgData []byte) (*ProcessedImage, error) {
	if len(imgData) == 0 {
		return nil, fmt.Errorf("image data cannot be empty")
	}
	if len(imgData) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds maximum size of %d bytes", maxImageBytes)
	}

	// Decode config only. Full decode happens once, inside ComputeBlurHash.
	_, format, err := image.DecodeConfig(bytes.NewReader(imgData))
	if err != nil {
		return nil, fmt.Errorf("unsupported image format: %w", err)
	}

	filename, err := generateFilename(format)
	if err != nil {
		return nil, err
	}

	if err := p.storage.Save(filename, imgData); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	blurHash, err := ComputeBlurHash(imgData)
	if err != nil {
		// The placeholder is nice to have, not load bearing.
		p.logger.Warn("failed to compute blurhash",
			"filename", filename,
			"error", err,
		)
		blurHash = ""
	}

	hash, err := p.storage.Hash(filename)
	if err != nil {
		return nil, fmt.Errorf("compute image hash: %w", err)
	}

	p.logger.Debug("processed image upload",
		"filename", filename,
		"format", format,
		"size", len(imgData),
	)

	return &ProcessedImage{
		Filename: filename,
		Format:   format,
		BlurHash: blurHash,
		Hash:     hash,
	}, nil
}

// generateFilename produces a unique name for an upload, keyed on format.
func generateFilename(format string) (string, error) {
	name, err := id.Generate("img")
	if err != nil {
		return "", fmt.Errorf("generate image filename: %w", err)
	}

	ext := format
	if format == "jpeg" {
		ext = "jpg"
	}

	return fmt.Sprintf("%s.%s", name, ext), nil
}
