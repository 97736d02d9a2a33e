package events

// ObjectFinalized is published after every successful storage write, for the
// original and for each derivative. Derivative events carry the idempotency
// marker in Metadata, which is what keeps the triggers from chasing their
// own output.
type ObjectFinalized struct {
	Path           string            `json:"path"`
	ContentType    string            `json:"contentType"`
	Size           int64             `json:"size"`
	Generation     int64             `json:"generation"`
	Metageneration int64             `json:"metageneration"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}
