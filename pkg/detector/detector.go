// Package detector defines the object-detection collaborator consumed by
// the analysis pipeline. The detection model itself is a black box living in
// an external model server; this package ships the HTTP client for it and a
// process-wide registry that loads each model's client at most once.
package detector

import (
	"context"

	"github.com/memorygarden/drawing-analyzer/pkg/types"
)

// Result is the detector output for one image. An image with nothing in it
// produces an empty Detections slice, never an error.
type Result struct {
	Detections []types.Detection `json:"detections"`
	Labels     map[int]string    `json:"labels,omitempty"`
}

// Empty reports whether the detector found nothing.
func (r *Result) Empty() bool {
	return r == nil || len(r.Detections) == 0
}

// Detector produces labeled boxes for an image. Implementations must
// tolerate "no detections" and must be safe for concurrent use.
type Detector interface {
	Detect(ctx context.Context, imagePath string, confidenceFloor float64) (*Result, error)
}
