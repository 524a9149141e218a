package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{in: "cpu", want: CPUBackend},
		{in: "CUDA", want: CUDABackend},
		{in: " coreml ", want: CoreMLBackend},
		{in: "openvino", want: OpenVINOBackend},
		{in: "tpu", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackend(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.DeviceID = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Backend = "tpu"
	assert.Error(t, cfg.Validate())
}
