package inference

import (
	"context"
	"image"
	"testing"

	"github.com/nvr-ai/go-behavior/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))

	tests := []struct {
		name     string
		fn       func(ctx context.Context, img image.Image, floor float32) ([]common.BoundingBox, error)
		floor    float32
		expected []string
		wantErr  bool
	}{
		{
			name: "filters below floor",
			fn: func(ctx context.Context, img image.Image, floor float32) ([]common.BoundingBox, error) {
				return []common.BoundingBox{
					{Label: "cup", Confidence: 0.05},
					{Label: "person", Confidence: 0.5},
				}, nil
			},
			floor:    0.1,
			expected: []string{"person"},
		},
		{
			name: "error yields no detections",
			fn: func(ctx context.Context, img image.Image, floor float32) ([]common.BoundingBox, error) {
				return []common.BoundingBox{{Label: "cup", Confidence: 0.9}}, errors.New("boom")
			},
			floor:   0.1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Run(context.Background(), DetectorFunc{Fn: tt.fn}, img, tt.floor)
			if tt.wantErr {
				require.False(t, out.OK())
				assert.Empty(t, out.Detections)
				return
			}
			require.True(t, out.OK())
			labels := make([]string, 0, len(out.Detections))
			for _, d := range out.Detections {
				labels = append(labels, d.Label)
			}
			assert.Equal(t, tt.expected, labels)
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	d := DetectorFunc{Fn: func(ctx context.Context, img image.Image, floor float32) ([]common.BoundingBox, error) {
		called = true
		return nil, nil
	}}

	out := Run(ctx, d, image.NewRGBA(image.Rect(0, 0, 1, 1)), 0)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.False(t, called)
}
