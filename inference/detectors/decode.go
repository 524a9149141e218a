package detectors

import (
	"sort"

	"github.com/nvr-ai/go-behavior/common"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// DecodeArgs describes a raw YOLO output tensor and the frame it came from.
type DecodeArgs struct {
	// Labels is the raw vocabulary; its length is the class count C.
	Labels []string
	// Anchors is the candidate count N.
	Anchors int
	// InputSize is the square model input the boxes are expressed in.
	InputSize int
	// Width and Height are the dimensions of the image that was resized to
	// the model input.
	Width, Height int
	// Floor is the minimum class score kept.
	Floor float32
	// MergeIoU merges same-label candidates overlapping above it.
	MergeIoU float32
}

// DecodeOutput converts a flattened [1, 4+C, N] YOLO output into raw
// detections in image coordinates.
//
// Each of the N columns holds (cx, cy, w, h) in model input pixels followed
// by C class scores. The best scoring class of a column is kept when it
// reaches the floor, then same-label candidates are merged greedily by
// descending score.
//
// Arguments:
//   - output: The output tensor data.
//   - args: Shape and scaling of the output.
//
// Returns:
//   - []common.BoundingBox: The decoded detections, highest score first.
//   - error: If the output does not match the described shape.
func DecodeOutput(output []float32, args DecodeArgs) ([]common.BoundingBox, error) {
	rows := 4 + len(args.Labels)
	if len(args.Labels) == 0 || args.Anchors <= 0 || args.InputSize <= 0 {
		return nil, errors.New("invalid output description")
	}
	if len(output) < rows*args.Anchors {
		return nil, errors.Errorf("output holds %d values, expected %d", len(output), rows*args.Anchors)
	}

	t := tensor.New(
		tensor.WithShape(rows, args.Anchors),
		tensor.WithBacking(output[:rows*args.Anchors]),
	)

	at := func(row, col int) (float32, error) {
		v, err := t.At(row, col)
		if err != nil {
			return 0, err
		}
		return v.(float32), nil
	}

	sx := float32(args.Width) / float32(args.InputSize)
	sy := float32(args.Height) / float32(args.InputSize)

	var candidates []common.BoundingBox
	for col := 0; col < args.Anchors; col++ {
		classID := -1
		best := float32(-1e9)
		for c := range args.Labels {
			score, err := at(4+c, col)
			if err != nil {
				return nil, errors.Wrap(err, "failed to read class score")
			}
			if score > best {
				best = score
				classID = c
			}
		}
		if classID < 0 || best < args.Floor {
			continue
		}

		var geom [4]float32
		for i := range geom {
			v, err := at(i, col)
			if err != nil {
				return nil, errors.Wrap(err, "failed to read box")
			}
			geom[i] = v
		}
		xc, yc, w, h := geom[0], geom[1], geom[2], geom[3]

		candidates = append(candidates, common.BoundingBox{
			Box: common.NewBox(
				(xc-w/2)*sx,
				(yc-h/2)*sy,
				(xc+w/2)*sx,
				(yc+h/2)*sy,
			),
			Label:      args.Labels[classID],
			Confidence: best,
		})
	}

	return mergeCandidates(candidates, args.MergeIoU), nil
}

// mergeCandidates keeps the strongest candidate of every group of same-label
// boxes overlapping above iou.
func mergeCandidates(candidates []common.BoundingBox, iou float32) []common.BoundingBox {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	merged := make([]common.BoundingBox, 0, len(candidates))
	for _, candidate := range candidates {
		overlaps := false
		for _, existing := range merged {
			if existing.Label == candidate.Label && candidate.IoU(existing.Box) > iou {
				overlaps = true
				break
			}
		}
		if !overlaps {
			merged = append(merged, candidate)
		}
	}
	return merged
}
