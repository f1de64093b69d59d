package imagegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaults() Request {
	return Request{Format: FormatSquare, Steps: 4}
}

func TestParseArgs_PromptAndFormat(t *testing.T) {
	req := ParseArgs("prompt: A beautiful sunset in Paris, format: instagram_square", defaults())
	assert.Equal(t, "A beautiful sunset in Paris", req.Prompt)
	assert.Equal(t, FormatInstagramSquare, req.Format)
	assert.True(t, req.Randomize)
}

func TestParseArgs_CommaInsidePrompt(t *testing.T) {
	req := ParseArgs("prompt: A cat, a dog, and a bird on a fence, format: hd", defaults())
	assert.Equal(t, "A cat, a dog, and a bird on a fence", req.Prompt)
	assert.Equal(t, FormatHD, req.Format)
}

func TestParseArgs_UnknownFormatFallsBack(t *testing.T) {
	req := ParseArgs("prompt: x, format: nonsense", defaults())
	assert.Equal(t, FormatSquare, req.Format)
}

func TestParseArgs_NumericFields(t *testing.T) {
	req := ParseArgs("prompt: x, steps: 8, seed: 42, randomize: false", defaults())
	assert.Equal(t, 8, req.Steps)
	assert.Equal(t, int64(42), req.Seed)
	assert.False(t, req.Randomize)
}

func TestParseArgs_ExplicitSeedDisablesRandomize(t *testing.T) {
	req := ParseArgs("prompt: x, seed: 7", defaults())
	assert.Equal(t, int64(7), req.Seed)
	assert.False(t, req.Randomize)
}

func TestDimensions_Presets(t *testing.T) {
	tests := []struct {
		format Format
		want   Dimensions
	}{
		{FormatInstagramSquare, Dimensions{1080, 1080}},
		{FormatInstagramPortrait, Dimensions{1080, 1350}},
		{FormatInstagramStory, Dimensions{1080, 1920}},
		{FormatTwitterPost, Dimensions{1200, 675}},
		{FormatLinkedInBanner, Dimensions{1584, 396}},
		{FormatFacebookCover, Dimensions{1640, 624}},
		{FormatWideBanner, Dimensions{2100, 900}},
		{FormatHD, Dimensions{1920, 1080}},
		{FormatSquare, Dimensions{1024, 1024}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			assert.Equal(t, tt.want, Request{Format: tt.format}.Dimensions())
		})
	}
}

func TestDimensions_CustomDefaults(t *testing.T) {
	// Custom without explicit width/height gets the documented default
	// instead of failing.
	assert.Equal(t, Dimensions{1024, 1024}, Request{Format: FormatCustom}.Dimensions())
	assert.Equal(t, Dimensions{800, 600}, Request{Format: FormatCustom, Width: 800, Height: 600}.Dimensions())
}

func TestParseArgs_CustomWithDimensions(t *testing.T) {
	req := ParseArgs("prompt: x, format: custom, width: 512, height: 256", defaults())
	assert.Equal(t, Dimensions{512, 256}, req.Dimensions())
}
