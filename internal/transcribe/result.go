// Package transcribe runs chunked, concurrent speech recognition over an
// uploaded audio file and assembles the ordered transcript.
package transcribe

// Kind classifies the outcome of transcribing one chunk.
type Kind string

// Chunk outcomes.
const (
	KindText           Kind = "text"
	KindUnintelligible Kind = "unintelligible"
	KindServiceError   Kind = "service_error"
)

// UnintelligiblePlaceholder replaces the transcript of a chunk in which the
// recognizer found no interpretable speech.
const UnintelligiblePlaceholder = "[Unintelligible audio]"

// Result is the outcome of transcribing a single chunk.
type Result struct {
	// Index is the sequence index of the originating chunk.
	Index int
	Kind  Kind
	// Text is the transcript. Only set when Kind is KindText.
	Text string
	// Err is the captured failure. Only set when Kind is KindServiceError.
	Err error
}

// Render returns the text that stands for the result in the transcript:
// the recognized text, the unintelligible placeholder, or "Error: <message>".
func (r Result) Render() string {
	switch r.Kind {
	case KindUnintelligible:
		return UnintelligiblePlaceholder
	case KindServiceError:
		if r.Err == nil {
			return "Error: unknown error"
		}
		return "Error: " + r.Err.Error()
	default:
		return r.Text
	}
}

// Failed reports whether the chunk produced no usable transcript.
func (r Result) Failed() bool {
	return r.Kind != KindText
}

// RenderAll renders results in order.
func RenderAll(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Render()
	}
	return out
}
