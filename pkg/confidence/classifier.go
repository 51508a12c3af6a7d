// Package confidence partitions detector output into confidence tiers.
//
// The tiers drive the branch selection of the analysis pipeline: a non-empty
// high tier enables rule-based interpretation, a non-empty low tier enables
// vision-assisted interpretation, and empty tiers fall back to text-only
// analysis.
package confidence

import "github.com/memorygarden/drawing-analyzer/pkg/types"

// Default thresholds used when the configuration does not override them.
const (
	DefaultHighThreshold = 0.6
	DefaultLowThreshold  = 0.4
)

// Classify partitions detections into high / low / rejected tiers.
//
// Every detection is classified independently; there is no cross-object
// normalization. A confidence exactly equal to a threshold lands in the
// higher tier. A nil or empty input yields three empty tiers, which is a
// valid, non-error state.
func Classify(detections []types.Detection, highThreshold, lowThreshold float64) types.Tiers {
	var tiers types.Tiers
	for _, det := range detections {
		switch {
		case det.Confidence >= highThreshold:
			tiers.High = append(tiers.High, det)
		case det.Confidence >= lowThreshold:
			tiers.Low = append(tiers.Low, det)
		default:
			tiers.Rejected = append(tiers.Rejected, det)
		}
	}
	return tiers
}

// ClassifyDefault partitions detections using the default 0.6/0.4 thresholds.
func ClassifyDefault(detections []types.Detection) types.Tiers {
	return Classify(detections, DefaultHighThreshold, DefaultLowThreshold)
}

// Union returns high followed by low, preserving detection order within each
// tier. Used when the vision interpreter should see everything that was not
// rejected outright.
func Union(tiers types.Tiers) []types.Detection {
	if len(tiers.High) == 0 && len(tiers.Low) == 0 {
		return nil
	}
	out := make([]types.Detection, 0, len(tiers.High)+len(tiers.Low))
	out = append(out, tiers.High...)
	out = append(out, tiers.Low...)
	return out
}

// Labels extracts the labels of a detection list in order.
func Labels(detections []types.Detection) []string {
	if len(detections) == 0 {
		return nil
	}
	labels := make([]string, 0, len(detections))
	for _, det := range detections {
		labels = append(labels, det.Label)
	}
	return labels
}
