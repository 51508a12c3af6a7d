package detector

import (
	"fmt"
	"sync"

	"github.com/memorygarden/drawing-analyzer/pkg/types"
)

// toDetection converts a raw class/conf/xyxy tuple into a Detection.
func toDetection(class string, conf float64, box [4]float64) types.Detection {
	return types.Detection{
		Label:      class,
		Confidence: conf,
		Box: types.Box{
			X1: box[0],
			Y1: box[1],
			X2: box[2],
			Y2: box[3],
		},
	}
}

// Factory builds the Detector for a model identifier.
type Factory func(modelID string) (Detector, error)

// Registry is a read-mostly cache of detectors keyed by model identifier.
// Each detector is built lazily, at most once per process lifetime, and
// never invalidated. Safe for concurrent use; it is owned by the process and
// injected into the pipeline rather than referenced as global state.
type Registry struct {
	factory Factory

	mu        sync.RWMutex
	detectors map[string]Detector
}

// NewRegistry creates a registry that builds detectors through factory.
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory:   factory,
		detectors: make(map[string]Detector),
	}
}

// Get returns the detector for modelID, building it on first use.
func (r *Registry) Get(modelID string) (Detector, error) {
	r.mu.RLock()
	det, ok := r.detectors[modelID]
	r.mu.RUnlock()
	if ok {
		return det, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock.
	if det, ok := r.detectors[modelID]; ok {
		return det, nil
	}

	det, err := r.factory(modelID)
	if err != nil {
		return nil, fmt.Errorf("모델 %q 로딩 실패: %w", modelID, err)
	}
	r.detectors[modelID] = det
	return det, nil
}

// Loaded lists the model identifiers built so far.
func (r *Registry) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.detectors))
	for id := range r.detectors {
		ids = append(ids, id)
	}
	return ids
}
