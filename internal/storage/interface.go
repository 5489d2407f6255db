package storage

import "context"

// Category names the kind of artifact written for a meme index.
type Category string

const (
	CategoryBaseImage Category = "base_image"
	CategoryFinalMeme Category = "final_meme"
)

// ArtifactStore persists generated images.
type ArtifactStore interface {
	// Save writes an artifact and returns the path it was written to.
	// The timestamp is fixed per meme index so the base/final pair of
	// one index shares it.
	Save(ctx context.Context, category Category, index int, timestamp string, data []byte) (string, error)
}
