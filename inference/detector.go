// Package inference - Detector contract and ONNX Runtime plumbing.
package inference

import (
	"context"
	"image"

	"github.com/nvr-ai/go-behavior/common"
)

// Detector is an object detector the refinement pipeline treats as a black
// box.
//
// Implementations must be safe to call from multiple goroutines or serialize
// internally.
type Detector interface {
	// Infer runs the detector over img and returns every raw detection whose
	// confidence is at least floor. Boxes are in img's pixel coordinates with
	// the origin at the top left of img.
	Infer(ctx context.Context, img image.Image, floor float32) ([]common.BoundingBox, error)
	// Vocabulary returns the raw labels the detector can emit.
	Vocabulary() []string
}

// DetectorFunc adapts a function into a Detector with a fixed vocabulary.
type DetectorFunc struct {
	Fn     func(ctx context.Context, img image.Image, floor float32) ([]common.BoundingBox, error)
	Labels []string
}

// Infer calls Fn.
func (f DetectorFunc) Infer(ctx context.Context, img image.Image, floor float32) ([]common.BoundingBox, error) {
	return f.Fn(ctx, img, floor)
}

// Vocabulary returns Labels.
func (f DetectorFunc) Vocabulary() []string {
	return f.Labels
}

// Outcome is the result of a single detector call. A failed call carries Err
// and no detections; callers decide whether the failure is fatal.
type Outcome struct {
	Detections []common.BoundingBox
	Err        error
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Run calls the detector and captures the result as an Outcome. Detections
// below floor are dropped in case the detector ignores it.
//
// Arguments:
//   - ctx: The context for the call.
//   - d: The detector to run.
//   - img: The image to run it over.
//   - floor: The minimum confidence.
//
// Returns:
//   - Outcome: The detections, or the error with no detections.
func Run(ctx context.Context, d Detector, img image.Image, floor float32) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Err: err}
	}

	raw, err := d.Infer(ctx, img, floor)
	if err != nil {
		return Outcome{Err: err}
	}

	kept := raw[:0:0]
	for _, r := range raw {
		if r.Confidence >= floor {
			kept = append(kept, r)
		}
	}
	return Outcome{Detections: kept}
}
