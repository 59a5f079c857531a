package dto

type AppendInput struct {
	URL  string
	Type string
}

type RecordingOutput struct {
	URL  string
	Type string
	Date string
}

type LoadOutput struct {
	Count int
	// Malformed is set when stored history could not be decoded and was
	// replaced by an empty list.
	Malformed bool
}
