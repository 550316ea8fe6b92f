package classifier

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/nao1215/phishscan/internal/model"
	"github.com/tidwall/gjson"
)

// ParseResponse decodes a classifier response body into an AnalysisResult.
//
// The explanation is taken from "top_shap_features" in document order (the
// classifier already ranks it). When that is missing, it is derived from the
// full "shap_explanation" map. Entries whose value is not a number are
// skipped; a missing explanation text becomes model.NoExplanationText.
//
// Design decision: We read the body with gjson instead of unmarshaling into a
// struct. The explanation is a JSON object whose key order is the ranking,
// and encoding/json would lose that order by decoding into a map.
func ParseResponse(body []byte) (*model.AnalysisResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedResponse)
	}

	prediction := root.Get("prediction")
	if prediction.Type != gjson.String {
		return nil, fmt.Errorf("%w: missing string field \"prediction\"", ErrMalformedResponse)
	}

	result := &model.AnalysisResult{
		Verdict:    prediction.Str,
		Reason:     stringOrEmpty(root.Get("reason")),
		Impact:     parseImpact(root.Get("shap_explanation")),
		ReceivedAt: time.Now(),
	}

	result.Explanation = parseTopFeatures(root.Get("top_shap_features"))
	if len(result.Explanation) == 0 {
		result.Explanation = contributionsFromImpact(result.Impact)
	}
	model.RankContributions(result.Explanation)

	return result, nil
}

// parseTopFeatures reads {"name": {"shap_value": n, "explanation": s}}.
func parseTopFeatures(v gjson.Result) []model.Contribution {
	if !v.IsObject() {
		return nil
	}

	var out []model.Contribution
	v.ForEach(func(key, entry gjson.Result) bool {
		value := entry.Get("shap_value")
		if !entry.IsObject() || value.Type != gjson.Number || !isFinite(value.Num) {
			return true
		}

		text := stringOrEmpty(entry.Get("explanation"))
		if text == "" {
			text = model.NoExplanationText
		}

		out = append(out, model.Contribution{
			Feature: key.String(),
			Value:   value.Num,
			Text:    text,
		})
		return true
	})
	return out
}

// parseImpact reads {"name": n}. It returns nil when there is no such map.
func parseImpact(v gjson.Result) map[string]float64 {
	if !v.IsObject() {
		return nil
	}

	impact := make(map[string]float64)
	v.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.Number && isFinite(value.Num) {
			impact[key.String()] = value.Num
		}
		return true
	})
	if len(impact) == 0 {
		return nil
	}
	return impact
}

// contributionsFromImpact builds an explanation from the full impact map.
// Names are sorted first so that equal magnitudes rank deterministically.
func contributionsFromImpact(impact map[string]float64) []model.Contribution {
	if len(impact) == 0 {
		return nil
	}

	names := make([]string, 0, len(impact))
	for name := range impact {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.Contribution, 0, len(names))
	for _, name := range names {
		out = append(out, model.Contribution{
			Feature: name,
			Value:   impact[name],
			Text:    model.NoExplanationText,
		})
	}
	return out
}

func stringOrEmpty(v gjson.Result) string {
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
