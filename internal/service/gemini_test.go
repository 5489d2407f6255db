package service

import (
	"errors"
	"testing"

	"github.com/timmy/memeforge/internal/domain"
)

func TestParsePlan(t *testing.T) {
	fullResponse := `{
		"visual_concept": "a cat in an office chair",
		"visual_elements": ["cat", "office chair", "monitor"],
		"mood": "deadpan",
		"style": "photo",
		"text_blocks_needed": 2,
		"humor_concept": "work from home"
	}`

	tests := []struct {
		name        string
		raw         string
		wantSource  PlanSource
		wantErr     bool
		wantConcept string
	}{
		{
			name:        "complete response",
			raw:         fullResponse,
			wantSource:  PlanFromResponse,
			wantConcept: "a cat in an office chair",
		},
		{
			name:        "json wrapped in prose",
			raw:         "Here is your plan:\n" + fullResponse + "\nHope that helps!",
			wantSource:  PlanFromResponse,
			wantConcept: "a cat in an office chair",
		},
		{
			name:        "missing optional fields get defaults",
			raw:         `{"visual_concept": "a dog", "humor_concept": "dogs"}`,
			wantSource:  PlanWithDefaults,
			wantConcept: "a dog",
		},
		{
			name:       "empty object gets generic concept",
			raw:        `{}`,
			wantSource: PlanWithDefaults,
		},
		{
			name:    "not json at all",
			raw:     "sorry, I cannot help with that",
			wantErr: true,
		},
		{
			name:    "broken json inside braces",
			raw:     `{"visual_concept": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, src, err := parsePlan(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				var parseErr *domain.ParseError
				if !errors.As(err, &parseErr) {
					t.Errorf("expected ParseError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src != tt.wantSource {
				t.Errorf("source = %s, want %s", src, tt.wantSource)
			}
			if tt.wantConcept != "" && plan.VisualConcept != tt.wantConcept {
				t.Errorf("visual concept = %q, want %q", plan.VisualConcept, tt.wantConcept)
			}
			if plan.VisualConcept == "" || plan.Mood == "" || plan.Style == "" {
				t.Errorf("defaults not applied: %+v", plan)
			}
			if plan.TextBlocksNeeded < 1 {
				t.Errorf("text_blocks_needed not defaulted: %d", plan.TextBlocksNeeded)
			}
		})
	}
}

func TestParseTextBlocks(t *testing.T) {
	t.Run("valid blocks", func(t *testing.T) {
		blocks, err := parseTextBlocks(`{"text_blocks": [
			{"text": "TOP", "position": "top", "style": "bold", "color": "white"},
			{"text": "BOTTOM", "position": "bottom", "style": "bold", "color": "white"}
		]}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(blocks) != 2 {
			t.Fatalf("expected 2 blocks, got %d", len(blocks))
		}
		if blocks[0].Text != "TOP" || blocks[1].Position != "bottom" {
			t.Errorf("unexpected blocks: %+v", blocks)
		}
	})

	t.Run("empty text blocks are dropped", func(t *testing.T) {
		blocks, err := parseTextBlocks(`{"text_blocks": [
			{"text": "", "position": "top"},
			{"text": "KEEP ME"}
		]}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(blocks) != 1 || blocks[0].Text != "KEEP ME" {
			t.Errorf("unexpected blocks: %+v", blocks)
		}
		// Dropped fields get defaults.
		if blocks[0].Position != "top" || blocks[0].Color != "white" {
			t.Errorf("defaults not applied: %+v", blocks[0])
		}
	})

	t.Run("no blocks at all is a hard error", func(t *testing.T) {
		if _, err := parseTextBlocks(`{"text_blocks": []}`); err == nil {
			t.Error("expected error for empty block list")
		}
	})

	t.Run("malformed response", func(t *testing.T) {
		_, err := parseTextBlocks("no json here")
		var parseErr *domain.ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("expected ParseError, got %v", err)
		}
	})
}

func TestDescribeBlocks(t *testing.T) {
	got := describeBlocks([]domain.TextBlock{
		{Text: "WHEN IT COMPILES", Position: "top", Color: "white"},
		{Text: "SHIP IT", Position: "bottom", Color: "yellow"},
	})
	want := []string{
		"TOP TEXT: 'WHEN IT COMPILES' in white color with black outline",
		"BOTTOM TEXT: 'SHIP IT' in yellow color with black outline",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d descriptions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("description %d = %q, want %q", i, got[i], want[i])
		}
	}
}
