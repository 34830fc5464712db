package model

// Options tunes field construction.
type Options struct {
	// Labeler derives labels for properties without a title.
	Labeler func(string) string
}

func defaultOptions() Options {
	return Options{Labeler: DefaultLabel}
}
