// Package postprocess - Postprocessing of canonical detections.
package postprocess

import (
	"github.com/nvr-ai/go-behavior/common"
	"github.com/nvr-ai/go-behavior/models"
)

// Detection is a canonicalized, threshold-gated detection in frame
// coordinates.
type Detection struct {
	// The bounding box of the detection, in full-frame coordinates.
	Box common.Box `json:"bbox"`
	// The confidence score of the detection, in [0,1].
	Confidence float32 `json:"confidence"`
	// The canonical class identifier.
	ClassID int `json:"class_id"`
	// The canonical class name.
	ClassName string `json:"class_name"`
}

// NewDetection builds a detection of a canonical class.
func NewDetection(box common.Box, confidence float32, class models.Class) Detection {
	return Detection{
		Box:        box,
		Confidence: confidence,
		ClassID:    class.ID,
		ClassName:  class.Name,
	}
}

// CountByClass returns the number of detections of each class.
func CountByClass(detections []Detection) map[string]int {
	counts := make(map[string]int)
	for _, d := range detections {
		counts[d.ClassName]++
	}
	return counts
}
