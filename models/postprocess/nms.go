// Package postprocess - provides Non-Maximum Suppression for detection results.
package postprocess

import (
	"sort"
)

// DefaultIoUThreshold is the overlap at or above which a lower confidence
// detection is suppressed.
const DefaultIoUThreshold float32 = 0.45

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	// IoUThreshold is the overlap at or above which detections are suppressed.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// ClassAware restricts suppression to detections of the same class.
	// Deduplication of behavior detections leaves it off so that one object
	// reported under two labels collapses to the stronger one.
	ClassAware bool `json:"class_aware" yaml:"class_aware"`
}

// DefaultNMSConfig returns the cross-class configuration used for behavior
// detections.
func DefaultNMSConfig() NMSConfig {
	return NMSConfig{IoUThreshold: DefaultIoUThreshold}
}

// Deduplicate performs greedy Non-Maximum Suppression over the detections of a
// single frame.
//
// Detections are stably sorted by descending confidence, so ties keep their
// input order. The strongest remaining detection is kept and every remaining
// detection overlapping it with IoU >= threshold is discarded, until nothing
// remains. The input slice is not modified.
//
// Arguments:
//   - detections: The union of first and second pass detections for a frame.
//   - config: NMS configuration.
//
// Returns:
//   - Filtered slice of detections, highest confidence first. If no
//     detections are provided, returns nil.
func Deduplicate(detections []Detection, config NMSConfig) []Detection {
	n := len(detections)
	if n == 0 {
		return nil
	}

	sorted := make([]Detection, n)
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]Detection, 0, n)
	used := make([]bool, n)

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}

		anchor := sorted[i]
		kept = append(kept, anchor)
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			if config.ClassAware && sorted[j].ClassName != anchor.ClassName {
				continue
			}
			if anchor.Box.IoU(sorted[j].Box) >= config.IoUThreshold {
				used[j] = true
			}
		}
	}

	return kept
}
