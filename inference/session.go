package inference

import (
	"os"
	"sync"

	"github.com/nvr-ai/go-behavior/inference/providers"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

var initMu sync.Mutex

// InitializeRuntime loads the onnxruntime shared library and initializes the
// environment. It is safe to call more than once.
//
// Arguments:
//   - libPath: Path to the shared library. Empty selects the platform default.
//
// Returns:
//   - error: If the library is missing or the environment fails to start.
func InitializeRuntime(libPath string) error {
	initMu.Lock()
	defer initMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libPath == "" {
		libPath = providers.SharedLibPath()
	}
	if _, err := os.Stat(libPath); err != nil {
		return errors.Wrapf(err, "onnxruntime library not found at %s", libPath)
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "error initializing ORT environment")
	}
	return nil
}

// SessionConfig describes a single-input single-output float32 model.
type SessionConfig struct {
	// ModelPath is the path to the .onnx file.
	ModelPath string
	// LibraryPath is the onnxruntime shared library.
	LibraryPath string
	// InputName and OutputName are the graph node names.
	InputName  string
	OutputName string
	// InputShape is the NCHW input shape.
	InputShape ort.Shape
	// OutputShape is the shape of the output tensor.
	OutputShape ort.Shape
	// IntraOpThreads parallelizes execution within graph nodes. 0 uses the
	// runtime default.
	IntraOpThreads int
	// InterOpThreads parallelizes execution across graph nodes. 0 uses the
	// runtime default.
	InterOpThreads int
	// Provider selects the execution provider.
	Provider providers.Config
}

// Session represents a model session from the onnxruntime with its
// preallocated tensors.
//
// Run and tensor access are serialized by the session's lock; callers hold it
// with Lock/Unlock around PrepareInput, Run and reading Output.
type Session struct {
	sync.Mutex

	Session *ort.AdvancedSession
	Input   *ort.Tensor[float32]
	Output  *ort.Tensor[float32]
}

// NewSession creates an ONNX Runtime session with preallocated input and output
// tensors.
//
// Arguments:
//   - cfg: The session configuration.
//
// Returns:
//   - *Session: The session. The caller must Close it.
//   - error: If the runtime, tensors or session cannot be created.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := InitializeRuntime(cfg.LibraryPath); err != nil {
		return nil, err
	}

	input, err := ort.NewEmptyTensor[float32](cfg.InputShape)
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}

	output, err := ort.NewEmptyTensor[float32](cfg.OutputShape)
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "error creating output tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "error creating ORT session options")
	}
	defer options.Destroy()

	if err := options.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "error setting intra-op threads")
	}
	if err := options.SetInterOpNumThreads(cfg.InterOpThreads); err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "error setting inter-op threads")
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "error setting graph optimization level")
	}
	if err := cfg.Provider.Apply(options); err != nil {
		input.Destroy()
		output.Destroy()
		return nil, err
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.Value{input},
		[]ort.Value{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrapf(err, "error creating ORT session for %s", cfg.ModelPath)
	}

	return &Session{
		Session: session,
		Input:   input,
		Output:  output,
	}, nil
}

// Run executes the model over the current input tensor.
func (s *Session) Run() error {
	if s.Session == nil {
		return errors.New("session closed")
	}
	return s.Session.Run()
}

// Close releases the resources associated with the Session.
//
// Returns:
//   - No return values.
func (s *Session) Close() {
	s.Lock()
	defer s.Unlock()

	if s.Input != nil {
		s.Input.Destroy()
		s.Input = nil
	}
	if s.Output != nil {
		s.Output.Destroy()
		s.Output = nil
	}
	if s.Session != nil {
		s.Session.Destroy()
		s.Session = nil
	}
}
