package recommend

// ComponentScore is the per-source aggregate for a response: the mean raw
// confidence the source reported and its configured fusion weight.
type ComponentScore struct {
	Component string  `json:"component"`
	Score     float64 `json:"score"`
	Weight    float64 `json:"weight"`
}

// Response is the fused result for one request. A Response is built once by
// the pipeline and never mutated afterwards; cached responses are re-decoded
// into fresh values, so callers may hold them indefinitely.
type Response struct {
	ID               string            `json:"id"`
	Results          []MergedCandidate `json:"results"`
	TotalConfidence  float64           `json:"total_confidence"`
	ComponentScores  []ComponentScore  `json:"component_scores"`
	ProcessingTimeMS int64             `json:"processing_time_ms"`
	FromCache        bool              `json:"from_cache"`
	Warnings         []string          `json:"warnings,omitempty"`
}
