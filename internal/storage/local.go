package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"github.com/timmy/memeforge/internal/logger"
)

// maxTokenLen bounds sanitized filename tokens.
const maxTokenLen = 64

// LocalStore writes artifacts to a directory on the local filesystem.
type LocalStore struct {
	dir string
	log *logger.Logger
}

// NewLocalStore creates a store rooted at dir, creating the directory if
// it does not exist.
func NewLocalStore(dir string, log *logger.Logger) (*LocalStore, error) {
	if log == nil {
		log = logger.GetDefault()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, log: log}, nil
}

// Dir returns the output directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

// ArtifactPath returns the path an artifact will be written to. It is a
// pure function of its inputs: calling it twice with the same arguments
// yields the same path.
func (s *LocalStore) ArtifactPath(category Category, index int, timestamp string) string {
	name := fmt.Sprintf("%s_%d_%s.jpg", SanitizeToken(string(category)), index, timestamp)
	return filepath.Join(s.dir, name)
}

// Save writes the artifact atomically: bytes go to a temp file in the
// output directory first, then the temp file is renamed into place.
func (s *LocalStore) Save(ctx context.Context, category Category, index int, timestamp string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("refusing to save empty %s artifact", category)
	}

	if format := DetectFormat(data); format == "" {
		// Still written: the caller decided these bytes are the artifact.
		s.log.WithField(logger.FieldSize, len(data)).
			Warn("Artifact bytes are not a recognized image format")
	}

	// The directory may have been removed between construction and save.
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", s.dir, err)
	}

	path := s.ArtifactPath(category, index, timestamp)
	tmp := path + "." + uuid.NewString() + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to rename %s into place: %w", tmp, err)
	}

	s.log.WithFields(logger.Fields{
		logger.FieldPath: path,
		logger.FieldSize: len(data),
	}).Debug("Artifact saved")

	return path, nil
}

// SanitizeToken converts any string into a non-empty, lowercase,
// filesystem-safe token: runs of non-alphanumeric characters become a
// single underscore, leading/trailing underscores are trimmed, and the
// result is bounded in length.
func SanitizeToken(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	token := strings.Trim(b.String(), "_")
	if len(token) > maxTokenLen {
		token = strings.Trim(token[:maxTokenLen], "_")
	}
	if token == "" {
		return "untitled"
	}
	return token
}

// Timestamp formats t as a filesystem-safe token with millisecond
// precision, enough to distinguish successive memes within a run.
func Timestamp(t time.Time) string {
	return fmt.Sprintf("%s_%03d", t.Format("20060102_150405"), t.Nanosecond()/int(time.Millisecond))
}

// DetectFormat sniffs the image format of data (jpeg, png, gif, webp).
// Returns the empty string when the bytes are not a decodable image.
func DetectFormat(data []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	return format
}
