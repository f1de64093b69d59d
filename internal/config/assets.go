package config

// Generated images are persisted under GeneratedImagesDir and exposed at
// GeneratedImagesURLPrefix. The image tool and the serving layer must agree
// on this mapping, so both read it from here.
const (
	GeneratedImagesDir       = "generated_images"
	GeneratedImagesURLPrefix = "/generated_images/"

	// OutputDir holds the markdown/JSON artifacts written per completed run.
	OutputDir = "output"
)
