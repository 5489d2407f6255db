package domain

import "time"

// DefaultHumorType is used when the caller does not specify a humor style.
const DefaultHumorType = "general"

// MemeRequest captures the parameters of one generation run as entered on
// the command line. Immutable once constructed.
type MemeRequest struct {
	Theme        string
	HumorType    string
	Restrictions string
	Count        int
}

// NewMemeRequest builds a request, applying the documented defaults.
// Parameters:
//   - theme: meme theme, required.
//   - humorType: humor style; empty means DefaultHumorType.
//   - restrictions: free-form content restrictions; may be empty.
//   - count: number of memes to generate; values below 1 are raised to 1.
//
// Returns:
//   - MemeRequest: normalized request value.
func NewMemeRequest(theme, humorType, restrictions string, count int) MemeRequest {
	if humorType == "" {
		humorType = DefaultHumorType
	}
	if count < 1 {
		count = 1
	}
	return MemeRequest{
		Theme:        theme,
		HumorType:    humorType,
		Restrictions: restrictions,
		Count:        count,
	}
}

// MemePlan is the planning stage output: a structured description of the
// meme to build. It is handed to the image-generation and text stages and
// never persisted.
type MemePlan struct {
	VisualConcept    string   `json:"visual_concept"`
	VisualElements   []string `json:"visual_elements"`
	Mood             string   `json:"mood"`
	Style            string   `json:"style"`
	TextBlocksNeeded int      `json:"text_blocks_needed"`
	HumorConcept     string   `json:"humor_concept"`
}

// TextBlock is one positioned piece of meme text produced by the
// text-generation stage.
type TextBlock struct {
	Text     string `json:"text"`
	Position string `json:"position"`
	Style    string `json:"style"`
	Color    string `json:"color"`
}

// BaseImage is the raw template image produced by the image-generation
// stage, before any text is applied.
type BaseImage struct {
	Bytes     []byte
	SourceURL string
	Format    string // sniffed image format (jpeg, png, webp, ...), empty if unknown
}

// FinalMeme is the terminal entity of the pipeline: the finished image with
// text burned in, ready to be written to disk.
type FinalMeme struct {
	Bytes     []byte
	Plan      MemePlan
	Index     int
	Timestamp string
}

// Outcome is the per-index result of one meme generation attempt. The
// orchestrator returns exactly one Outcome per requested index, in order.
type Outcome struct {
	Index     int
	BasePath  string // empty if the base image save was skipped or failed
	FinalPath string
	Stage     Stage // stage that failed, set only when Err != nil
	Err       error
	Duration  time.Duration
}

// Succeeded reports whether this index produced a final meme on disk.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}
