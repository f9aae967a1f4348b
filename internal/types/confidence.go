package types

// Confidence band thresholds.
const (
	HighConfidence     = 0.8
	StandardConfidence = 0.65
)

// ConfidenceBand maps a confidence score to a display colour and label.
func ConfidenceBand(score float64) (color, label string) {
	switch {
	case score >= HighConfidence:
		return "green", "高信頼"
	case score >= StandardConfidence:
		return "blue", "標準"
	default:
		return "orange", "要確認"
	}
}
