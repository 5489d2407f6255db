// Package prompts holds the prompt text sent to the planning, text and
// overlay models. Keeping it in one place makes prompt tuning reviewable
// without touching client code.
package prompts

import (
	"fmt"
	"strings"
)

// ============================================================================
// Planning Prompts
// ============================================================================

const planningTemplate = `You are a creative meme strategist. Plan a meme with the following parameters:

Theme: %s
Humor Type: %s
Restrictions: %s

Create a detailed meme plan that includes:
1. Visual concept description for image generation
2. Key visual elements that should be in the image
3. Overall mood and style
4. Text structure (how many text blocks will be needed)
5. Brief description of the joke/humor concept

Respond with a JSON object containing:
{
    "visual_concept": "detailed description for image generation",
    "visual_elements": ["element1", "element2", "element3"],
    "mood": "mood description",
    "style": "visual style",
    "text_blocks_needed": 2,
    "humor_concept": "brief description of the joke"
}`

const planningSimplifiedTemplate = `Plan a simple %s meme about "%s".

Respond with a JSON object:
{
    "visual_concept": "one-sentence scene description",
    "visual_elements": ["element1", "element2"],
    "mood": "mood",
    "style": "style",
    "text_blocks_needed": 2,
    "humor_concept": "the joke in one sentence"
}`

// Planning builds the full planning prompt for the first attempt.
func Planning(theme, humorType, restrictions string) string {
	if restrictions == "" {
		restrictions = "None"
	}
	return fmt.Sprintf(planningTemplate, theme, humorType, restrictions)
}

// PlanningSimplified builds the stripped-down prompt used on the planning
// retry, when the full prompt produced an unusable response.
func PlanningSimplified(theme, humorType string) string {
	return fmt.Sprintf(planningSimplifiedTemplate, humorType, theme)
}

// ============================================================================
// Base Image Prompt
// ============================================================================

const baseImageTemplate = `%s

Visual elements to include: %s
Mood: %s
Style: %s

Create a clear, high-quality image suitable for meme text overlay.
The image should have good contrast and space for text placement.
Make it look like a typical meme template with clear areas for text.`

// BaseImage builds the image-generation prompt from the plan fields.
func BaseImage(visualConcept string, visualElements []string, mood, style string) string {
	return fmt.Sprintf(baseImageTemplate, visualConcept, strings.Join(visualElements, ", "), mood, style)
}

// ============================================================================
// Meme Text Prompt
// ============================================================================

const memeTextTemplate = `You are a meme text writer. Looking at this image, create funny meme text based on:

Humor concept: %s
Number of text blocks needed: %d

Analyze the image and create appropriate meme text that:
1. Fits the visual elements in the image
2. Follows the humor concept
3. Is properly structured for the number of text blocks needed
4. Follows classic meme format (usually top text and bottom text)

Respond with JSON:
{
    "text_blocks": [
        {"text": "TOP TEXT HERE", "position": "top", "style": "bold", "color": "white"},
        {"text": "BOTTOM TEXT HERE", "position": "bottom", "style": "bold", "color": "white"}
    ]
}`

// MemeText builds the vision prompt for the text-generation stage.
func MemeText(humorConcept string, blocksNeeded int) string {
	return fmt.Sprintf(memeTextTemplate, humorConcept, blocksNeeded)
}

// ============================================================================
// Overlay Prompts
// ============================================================================

const overlayTemplate = `Create a meme by adding text to this image. The text should be in classic meme font style (bold, impact-like font).

Text to add:
%s

Requirements:
- Use bold, thick meme font (similar to Impact font)
- Add black outline/stroke around all text for maximum readability
- Make text large and clearly visible
- Position top text near the top of the image
- Position bottom text near the bottom of the image
- Ensure text doesn't cover important visual elements
- Make sure the text is perfectly readable against the background

Generate the final meme image with all text overlays applied.`

// Overlay builds the image-out prompt for the text-overlay stage.
// textDescriptions are rendered one per line.
func Overlay(textDescriptions []string) string {
	return fmt.Sprintf(overlayTemplate, strings.Join(textDescriptions, " | "))
}

const regenerationTemplate = `Analyze this image and create a detailed prompt for regenerating it with meme text.

Text to add:
%s

Create a comprehensive image generation prompt that:
1. Describes the current image in detail
2. Specifies where and how to add the meme text
3. Ensures the text is readable and properly formatted

Format your response as a single detailed prompt for image generation.`

// Regeneration builds the fallback prompt asking the vision model for an
// image-generation prompt that reproduces the base image with the meme
// text burned in. Used when the overlay model returns no image data.
func Regeneration(textDescriptions []string) string {
	return fmt.Sprintf(regenerationTemplate, strings.Join(textDescriptions, " | "))
}
