package recommend

import "strings"

// Well-known candidate attribute keys. The attribute map is open — adapters
// may attach anything — but these keys drive merging, ranking, and filtering.
const (
	AttrPrice        = "price"
	AttrCategory     = "category"
	AttrBrand        = "brand"
	AttrDifficulty   = "difficulty_level"
	AttrSafetyRating = "safety_rating"
	AttrReasoning    = "reasoning"
)

// ComponentResult is one raw candidate produced by a single source for a
// single request. It is owned by the producing adapter and read-only
// downstream.
type ComponentResult struct {
	Name       string         `json:"name"`
	Source     string         `json:"source"`
	Confidence float64        `json:"confidence"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Contribution records one source's raw confidence for a merged candidate.
type Contribution struct {
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// MergedCandidate is the deduplication unit: all raw candidates sharing a
// canonical name key collapse into one MergedCandidate.
type MergedCandidate struct {
	Name          string         `json:"name"`
	Key           string         `json:"-"`
	Contributions []Contribution `json:"contributions"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	Confidence    float64        `json:"confidence"`
	RankingScore  float64        `json:"ranking_score"`
	Rank          int            `json:"rank"`
}

// CanonicalKey returns the deduplication key for a candidate name:
// trimmed and lower-cased.
func CanonicalKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Price returns the candidate's price attribute, if present and numeric.
func (c *MergedCandidate) Price() (float64, bool) {
	return floatAttr(c.Attributes, AttrPrice)
}

// SafetyRating returns the candidate's safety rating attribute, if present
// and numeric.
func (c *MergedCandidate) SafetyRating() (float64, bool) {
	return floatAttr(c.Attributes, AttrSafetyRating)
}

// Difficulty returns the candidate's declared difficulty as a skill level.
// The second return is false when no difficulty is declared or it does not
// parse as a known level.
func (c *MergedCandidate) Difficulty() (SkillLevel, bool) {
	raw, ok := c.Attributes[AttrDifficulty]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	lvl := SkillLevel(strings.ToLower(strings.TrimSpace(s)))
	if !lvl.Valid() {
		return "", false
	}
	return lvl, true
}

// Clamp01 bounds a confidence value to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// floatAttr reads a numeric attribute. JSON decoding produces float64 but
// adapters constructing attributes in code may use int.
func floatAttr(attrs map[string]any, key string) (float64, bool) {
	raw, ok := attrs[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
