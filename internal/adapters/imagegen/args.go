package imagegen

import (
	"strconv"
	"strings"
)

// Request is the typed form of an image-generation call.
type Request struct {
	Prompt    string
	Format    Format
	Width     int
	Height    int
	Steps     int
	Seed      int64
	Randomize bool
}

// Dimensions resolves the pixel size for the request: preset lookup for named
// formats, explicit (or default 1024x1024) for custom.
func (r Request) Dimensions() Dimensions {
	if r.Format == FormatCustom {
		d := Dimensions{Width: r.Width, Height: r.Height}
		if d.Width <= 0 {
			d.Width = defaultCustomWidth
		}
		if d.Height <= 0 {
			d.Height = defaultCustomHeight
		}
		return d
	}
	if d, ok := formatPresets[r.Format]; ok {
		return d
	}
	return formatPresets[FormatSquare]
}

// ParseArgs converts the agent-facing "key: value, key: value" argument
// string into a Request. Unknown formats fall back to the default; only the
// first "prompt:" segment absorbs following text up to the next recognized
// key, so commas inside the prompt itself survive.
func ParseArgs(args string, defaults Request) Request {
	req := defaults
	req.Randomize = true

	for _, pair := range splitArgs(args) {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "prompt":
			req.Prompt = value
		case "format":
			f := Format(strings.ToLower(value))
			if f.Valid() {
				req.Format = f
			}
		case "steps":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				req.Steps = n
			}
		case "seed":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				req.Seed = n
				req.Randomize = false
			}
		case "randomize":
			req.Randomize = strings.EqualFold(value, "true")
		case "width":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				req.Width = n
			}
		case "height":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				req.Height = n
			}
		}
	}

	return req
}

// knownKeys guards the splitter: a comma only starts a new segment when the
// text after it looks like "key:". Commas embedded in prompt text stay put.
var knownKeys = []string{"prompt", "format", "steps", "seed", "randomize", "width", "height"}

func splitArgs(args string) []string {
	var segments []string
	start := 0
	for i := 0; i < len(args); i++ {
		if args[i] != ',' {
			continue
		}
		rest := strings.TrimSpace(args[i+1:])
		lower := strings.ToLower(rest)
		for _, key := range knownKeys {
			if strings.HasPrefix(lower, key) && strings.HasPrefix(strings.TrimSpace(lower[len(key):]), ":") {
				segments = append(segments, args[start:i])
				start = i + 1
				break
			}
		}
	}
	segments = append(segments, args[start:])
	return segments
}
