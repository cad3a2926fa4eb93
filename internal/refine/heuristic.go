package refine

import (
	"strings"
	"unicode"
)

// Heuristic thresholds ported from
// original_source/backend/refinement/analyzer.py's RefinementAnalyzer.
const (
	minContentLength        = 500
	minLineCount             = 5
	numericDensityThreshold  = 0.2
	lineLengthVarianceThresh = 0.5
)

// LooksLikeTable applies the original's numeric-density / line-length-
// variance / separator-ratio heuristics to flag text that was probably a
// mis-OCR'd table. Per SPEC_FULL.md, this is a **hint** that seeds
// missing_aspects for the LLM-verdict decision in Decide — it is not
// itself the refine/emit decision (spec.md §4.9 supersedes the original's
// heuristic-only approach).
func LooksLikeTable(text string) bool {
	if len(text) < minContentLength {
		return false
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) < minLineCount {
		return false
	}

	numericChars := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			numericChars++
		}
	}
	numericDensity := float64(numericChars) / float64(len(text))

	lineLengths := make([]float64, len(lines))
	var sum float64
	for i, line := range lines {
		lineLengths[i] = float64(len([]rune(line)))
		sum += lineLengths[i]
	}
	mean := sum / float64(len(lines))
	if mean == 0 {
		return false
	}

	var variance float64
	for _, l := range lineLengths {
		d := l - mean
		variance += d * d
	}
	variance = variance / float64(len(lineLengths)-1) / mean
	if len(lineLengths) < 2 {
		variance = 0
	}

	separatorLines := 0
	for _, line := range lines {
		if strings.Contains(line, "  ") || strings.Contains(line, "\t") {
			separatorLines++
		}
	}
	separatorRatio := float64(separatorLines) / float64(len(lines))

	numericCondition := numericDensity > numericDensityThreshold
	varianceCondition := variance < lineLengthVarianceThresh
	separatorCondition := separatorRatio > 0.6

	return varianceCondition && (numericCondition || separatorCondition)
}
