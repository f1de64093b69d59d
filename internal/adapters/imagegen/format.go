package imagegen

// Format names a preset aspect-ratio/pixel-dimension pair for social media.
type Format string

const (
	FormatInstagramSquare    Format = "instagram_square"    // 1:1
	FormatInstagramPortrait  Format = "instagram_portrait"  // 4:5
	FormatInstagramLandscape Format = "instagram_landscape" // 1.91:1
	FormatInstagramStory     Format = "instagram_story"     // 9:16
	FormatTwitterPost        Format = "twitter_post"        // 16:9
	FormatTwitterCard        Format = "twitter_card"        // 2:1
	FormatLinkedInPost       Format = "linkedin_post"       // 1.91:1
	FormatLinkedInBanner     Format = "linkedin_banner"     // 4:1
	FormatFacebookPost       Format = "facebook_post"       // 1.91:1
	FormatFacebookCover      Format = "facebook_cover"      // 2.7:1
	FormatWideBanner         Format = "wide_banner"         // 21:9
	FormatHD                 Format = "hd"                  // 16:9
	FormatSquare             Format = "square"              // 1:1
	FormatCustom             Format = "custom"
)

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// formatPresets maps every named format to its pixel dimensions. Custom has
// no preset; it falls back to 1024x1024 when width/height are not given.
var formatPresets = map[Format]Dimensions{
	FormatInstagramSquare:    {1080, 1080},
	FormatInstagramPortrait:  {1080, 1350},
	FormatInstagramLandscape: {1080, 566},
	FormatInstagramStory:     {1080, 1920},
	FormatTwitterPost:        {1200, 675},
	FormatTwitterCard:        {1200, 600},
	FormatLinkedInPost:       {1200, 628},
	FormatLinkedInBanner:     {1584, 396},
	FormatFacebookPost:       {1200, 628},
	FormatFacebookCover:      {1640, 624},
	FormatWideBanner:         {2100, 900},
	FormatHD:                 {1920, 1080},
	FormatSquare:             {1024, 1024},
}

const (
	defaultCustomWidth  = 1024
	defaultCustomHeight = 1024
)

// Valid reports whether f names a known format.
func (f Format) Valid() bool {
	if f == FormatCustom {
		return true
	}
	_, ok := formatPresets[f]
	return ok
}
