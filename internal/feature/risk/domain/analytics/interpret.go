package analytics

// Human-readable labels of the classifier output.
const (
	LabelStable   = "Low Risk – Stable outlook"
	LabelVolatile = "Moderate Risk – Some volatility expected"
	LabelElevated = "Elevated Risk – Potential downside"
	LabelSevere   = "High Risk – Significant downside risk likely"
)

// InterpretPrediction maps a predicted class and its confidence to a label.
// The class 0 and class 1 branches use different cut-offs (0.8 and 0.75).
func InterpretPrediction(class int, confidence float64) string {
	switch {
	case class == 0 && confidence >= 0.8:
		return LabelStable
	case class == 0:
		return LabelVolatile
	case confidence < 0.75:
		return LabelElevated
	default:
		return LabelSevere
	}
}
