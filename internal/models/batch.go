package models

// ProcessingOptions configures one batch run. Immutable once the run starts.
type ProcessingOptions struct {
	ParseMethod  string `json:"parse_method"`
	MaxWorkers   int    `json:"max_workers"`
	DisplayStats bool   `json:"display_stats"`
}

// DefaultProcessingOptions mirrors the server defaults applied when a field
// is absent from the request.
func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		ParseMethod:  "auto",
		MaxWorkers:   2,
		DisplayStats: true,
	}
}

// Normalize fills zero values with defaults and clamps max_workers to the
// server-wide bound. The bound guards against resource exhaustion from
// client-supplied worker counts.
func (o *ProcessingOptions) Normalize(workerLimit int) {
	if o.ParseMethod == "" {
		o.ParseMethod = "auto"
	}
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = DefaultProcessingOptions().MaxWorkers
	}
	if workerLimit > 0 && o.MaxWorkers > workerLimit {
		o.MaxWorkers = workerLimit
	}
}
