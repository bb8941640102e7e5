package app

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/yourusername/mp3-extract-go/internal/domain"
)

var (
	ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)
	ratePattern = regexp.MustCompile(`^([0-9]*\.?[0-9]+)\s*([KMGT]i?)?B/s$`)
)

var rateUnits = map[string]float64{
	"":   1,
	"K":  1e3,
	"Ki": 1 << 10,
	"M":  1e6,
	"Mi": 1 << 20,
	"G":  1e9,
	"Gi": 1 << 30,
	"T":  1e12,
	"Ti": 1 << 40,
}

// NormalizeProgress converts a raw extractor payload into a ProgressEvent.
// Payloads that cannot be interpreted are skipped (ok == false); they are
// never an error.
func NormalizeProgress(raw domain.RawProgress) (domain.ProgressEvent, bool) {
	if raw == nil {
		return domain.ProgressEvent{}, false
	}

	status := strings.ToLower(stringValue(raw["status"]))

	if _, ok := raw["postprocessor"]; ok {
		switch status {
		case "started", "processing", "finished":
			return domain.ProgressEvent{Phase: domain.PhaseConverting, Percent: 100}, true
		}
		return domain.ProgressEvent{}, false
	}

	switch status {
	case "downloading":
		percent, ok := parsePercent(raw["_percent_str"])
		if !ok {
			percent, ok = percentFromBytes(raw)
		}
		if !ok {
			return domain.ProgressEvent{}, false
		}
		event := domain.ProgressEvent{Phase: domain.PhaseDownloading, Percent: percent}
		event.RateBytesPerSec, event.RateText = parseRate(raw)
		return event, true
	case "finished":
		return domain.ProgressEvent{Phase: domain.PhaseConverting, Percent: 100}, true
	}
	return domain.ProgressEvent{}, false
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(ansiPattern.ReplaceAllString(s, ""))
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return floatValue(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func parsePercent(v any) (float64, bool) {
	if n, ok := floatValue(v); ok {
		return clampPercent(n), true
	}
	s := strings.TrimSuffix(stringValue(v), "%")
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return clampPercent(n), true
}

func percentFromBytes(raw domain.RawProgress) (float64, bool) {
	done, ok := floatValue(raw["downloaded_bytes"])
	if !ok {
		return 0, false
	}
	total, ok := floatValue(raw["total_bytes"])
	if !ok || total <= 0 {
		total, ok = floatValue(raw["total_bytes_estimate"])
	}
	if !ok || total <= 0 {
		return 0, false
	}
	return clampPercent(done / total * 100), true
}

func clampPercent(p float64) float64 {
	return math.Max(0, math.Min(100, p))
}

func parseRate(raw domain.RawProgress) (*float64, string) {
	text := stringValue(raw["_speed_str"])
	if text == "NA" || strings.HasPrefix(text, "Unknown") {
		text = ""
	}

	if n, ok := floatValue(raw["speed"]); ok && n >= 0 {
		return &n, text
	}

	m := ratePattern.FindStringSubmatch(text)
	if m == nil {
		return nil, text
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, text
	}
	n *= rateUnits[m[2]]
	return &n, text
}
