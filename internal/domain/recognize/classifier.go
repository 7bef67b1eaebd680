package recognize

import "context"

// HeaderGuess is one classified column header returned by the external model.
// Confidence is the model's own score, passed through unmodified.
type HeaderGuess struct {
	Header     string  `json:"header"`
	Field      string  `json:"field"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// TextClassifier is the narrow collaborator interface to the external
// text-classification model. One call carries the whole batch of unresolved
// headers; implementations are expected to be idempotent for identical input
// within a short window, to time out, and to retry a bounded number of
// times before returning an error.
type TextClassifier interface {
	ClassifyHeaders(ctx context.Context, headers []string) ([]HeaderGuess, error)
}
