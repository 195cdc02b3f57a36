package service

import (
	"sort"
	"strings"

	"github.com/benchwise/toolrec/internal/config"
	"github.com/benchwise/toolrec/internal/domain/recommend"
)

// MergerService fuses raw candidates from all sources into one ranked,
// filtered list. The four stages run in a fixed order: deduplicate,
// weight confidence, rank, filter.
type MergerService struct {
	weights    map[string]float64
	ranking    config.Ranking
	threshold  float64
	maxResults int
}

// NewMergerService creates a MergerService from fusion configuration.
// The weight-sum invariant is enforced at config load, not here.
func NewMergerService(fcfg config.Fusion) *MergerService {
	return &MergerService{
		weights:    fcfg.ScoringWeights,
		ranking:    fcfg.Ranking,
		threshold:  fcfg.ConfidenceThreshold,
		maxResults: fcfg.MaxRecommendations,
	}
}

// Merge runs the full fusion pipeline over the raw candidates and returns
// the ranked, filtered result list. The input is consumed read-only; the
// output is freshly allocated.
func (s *MergerService) Merge(results []recommend.ComponentResult, req *recommend.Request) []recommend.MergedCandidate {
	merged := s.deduplicate(results)

	for i := range merged {
		merged[i].Confidence = computeWeightedConfidence(merged[i].Contributions, s.weights)
		merged[i].RankingScore = s.rankingScore(&merged[i], req)
	}

	s.sortCandidates(merged)
	merged = s.filter(merged, req)

	for i := range merged {
		merged[i].Rank = i + 1
	}
	return merged
}

// deduplicate groups raw candidates by canonical name key. The first-seen
// spelling of the name is kept for display; attributes merge with
// last-non-null-wins semantics.
func (s *MergerService) deduplicate(results []recommend.ComponentResult) []recommend.MergedCandidate {
	byKey := make(map[string]*recommend.MergedCandidate)
	var order []string

	for i := range results {
		r := &results[i]
		key := recommend.CanonicalKey(r.Name)
		if key == "" {
			continue
		}

		mc, ok := byKey[key]
		if !ok {
			mc = &recommend.MergedCandidate{
				Name:       strings.TrimSpace(r.Name),
				Key:        key,
				Attributes: make(map[string]any),
			}
			byKey[key] = mc
			order = append(order, key)
		}

		mc.Contributions = append(mc.Contributions, recommend.Contribution{
			Source:     r.Source,
			Confidence: r.Confidence,
		})
		for k, v := range r.Attributes {
			if v != nil {
				mc.Attributes[k] = v
			}
		}
	}

	out := make([]recommend.MergedCandidate, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}

// computeWeightedConfidence fuses per-source raw confidences into one score:
//
//	sum(score_i * weight_i) / sum(weight_i)  over contributing sources only
//
// The denominator renormalizes over the sources that actually found the
// candidate, so an item two of three sources agree on is not penalized for
// the third source's silence. When the same source contributed more than
// once, its highest raw confidence counts. Sources with no configured
// weight are ignored; if no contributor has a weight, the plain mean of the
// raw confidences is used.
func computeWeightedConfidence(contribs []recommend.Contribution, weights map[string]float64) float64 {
	if len(contribs) == 0 {
		return 0
	}

	bySource := make(map[string]float64, len(contribs))
	for _, c := range contribs {
		if cur, ok := bySource[c.Source]; !ok || c.Confidence > cur {
			bySource[c.Source] = c.Confidence
		}
	}

	var num, den float64
	for src, score := range bySource {
		w, ok := weights[src]
		if !ok || w == 0 {
			continue
		}
		num += score * w
		den += w
	}
	if den == 0 {
		var sum float64
		for _, score := range bySource {
			sum += score
		}
		return recommend.Clamp01(sum / float64(len(bySource)))
	}
	return recommend.Clamp01(num / den)
}

// neutralSafety is the normalized safety term for candidates that declare
// no safety rating.
const neutralSafety = 0.5

// safetyScale is the backend safety-rating ceiling (ratings are 0-5).
const safetyScale = 5.0

// rankingScore blends confidence, safety, and price fit using the
// configured weights (defaults 0.5/0.3/0.2).
func (s *MergerService) rankingScore(c *recommend.MergedCandidate, req *recommend.Request) float64 {
	safety := neutralSafety
	if rating, ok := c.SafetyRating(); ok {
		safety = recommend.Clamp01(rating / safetyScale)
	}

	priceFit := 1.0
	if s.ranking.BudgetAware && req.Budget > 0 {
		if price, ok := c.Price(); ok {
			priceFit = recommend.Clamp01(1 - price/req.Budget)
		}
	}

	return c.Confidence*s.ranking.Confidence +
		safety*s.ranking.Safety +
		priceFit*s.ranking.PriceFit
}

// sortCandidates orders by ranking score descending; ties break on
// case-insensitive name so repeated runs produce identical orderings.
func (s *MergerService) sortCandidates(candidates []recommend.MergedCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].RankingScore != candidates[j].RankingScore {
			return candidates[i].RankingScore > candidates[j].RankingScore
		}
		return strings.ToLower(candidates[i].Name) < strings.ToLower(candidates[j].Name)
	})
}

// filter applies the confidence threshold, then budget, then skill
// appropriateness, then truncates. Confidence runs first so a cheap but
// unreliable candidate never survives on price alone.
func (s *MergerService) filter(candidates []recommend.MergedCandidate, req *recommend.Request) []recommend.MergedCandidate {
	out := candidates[:0]
	for i := range candidates {
		c := &candidates[i]

		if c.Confidence < s.threshold {
			continue
		}
		if price, ok := c.Price(); ok && price > req.Budget {
			continue
		}
		if difficulty, ok := c.Difficulty(); ok {
			if difficulty.Ordinal() > req.SkillLevel.Ordinal() {
				continue
			}
		}

		out = append(out, *c)
		if len(out) == s.maxResults {
			break
		}
	}
	return out
}

// ComponentScores aggregates per-source observed scores (mean raw
// confidence) with their configured weights, ordered by component name.
// Sources that returned nothing are omitted.
func (s *MergerService) ComponentScores(results []recommend.ComponentResult) []recommend.ComponentScore {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i := range results {
		sums[results[i].Source] += results[i].Confidence
		counts[results[i].Source]++
	}

	scores := make([]recommend.ComponentScore, 0, len(sums))
	for src, sum := range sums {
		scores = append(scores, recommend.ComponentScore{
			Component: src,
			Score:     sum / float64(counts[src]),
			Weight:    s.weights[src],
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].Component < scores[j].Component
	})
	return scores
}

// TotalConfidence fuses the component scores into one response-level score
// using the same renormalized weighting as candidate fusion.
func (s *MergerService) TotalConfidence(scores []recommend.ComponentScore) float64 {
	var num, den float64
	for _, cs := range scores {
		if cs.Weight == 0 {
			continue
		}
		num += cs.Score * cs.Weight
		den += cs.Weight
	}
	if den == 0 {
		if len(scores) == 0 {
			return 0
		}
		var sum float64
		for _, cs := range scores {
			sum += cs.Score
		}
		return recommend.Clamp01(sum / float64(len(scores)))
	}
	return recommend.Clamp01(num / den)
}
