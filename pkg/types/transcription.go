package types

// TranscribedLine is one line of text read by a vision model
type TranscribedLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Transcription is the structured answer a vision model returns for a
// transcription prompt
type Transcription struct {
	Lines    []TranscribedLine `json:"lines"`
	Language string            `json:"language"`
	// Raw is the unparsed model output
	Raw string `json:"-"`
}
