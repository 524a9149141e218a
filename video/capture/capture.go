// Package capture - OpenCV backed video sources and sinks.
package capture

import (
	"image"

	"github.com/nvr-ai/go-behavior/video"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// FileSource reads frames from a video file.
type FileSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	info    video.Info
	index   int
}

// OpenFile opens a video file for reading.
//
// Arguments:
//   - path: The video file.
//
// Returns:
//   - *FileSource: The source. The caller must Close it.
//   - error: If the file cannot be opened.
func OpenFile(path string) (*FileSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open video %s", path)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Errorf("failed to open video %s", path)
	}

	return &FileSource{
		capture: capture,
		mat:     gocv.NewMat(),
		info: video.Info{
			Width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
			Height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
			FPS:        capture.Get(gocv.VideoCaptureFPS),
			FrameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
		},
	}, nil
}

// Info returns the video properties.
func (s *FileSource) Info() video.Info {
	return s.info
}

// Read decodes the next frame.
func (s *FileSource) Read() (video.Frame, bool, error) {
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return video.Frame{}, false, nil
	}

	img, err := s.mat.ToImage()
	if err != nil {
		return video.Frame{}, false, errors.Wrapf(err, "failed to convert frame %d", s.index)
	}

	frame := video.Frame{Index: s.index, Image: img}
	s.index++
	return frame, true, nil
}

// Close releases the capture.
func (s *FileSource) Close() error {
	if err := s.mat.Close(); err != nil {
		return errors.Wrap(err, "failed to release frame buffer")
	}
	return s.capture.Close()
}

// Codecs are the fourcc codes tried in order when creating a writer.
var Codecs = []string{"avc1", "mp4v"}

// FileSink writes frames to a video file.
type FileSink struct {
	writer *gocv.VideoWriter
	codec  string
}

// CreateFile creates a video file with the dimensions and frame rate of info.
// H.264 (avc1) is preferred and MPEG-4 (mp4v) is the fallback.
//
// Arguments:
//   - path: The output file.
//   - info: The properties of the source being written.
//
// Returns:
//   - *FileSink: The sink. The caller must Close it.
//   - error: If no codec can open the file.
func CreateFile(path string, info video.Info) (*FileSink, error) {
	fps := info.FPS
	if fps <= 0 {
		fps = 25
	}

	var lastErr error
	for _, codec := range Codecs {
		writer, err := gocv.VideoWriterFile(path, codec, fps, info.Width, info.Height, true)
		if err != nil {
			lastErr = err
			continue
		}
		if !writer.IsOpened() {
			writer.Close()
			lastErr = errors.Errorf("codec %s unavailable", codec)
			continue
		}
		return &FileSink{writer: writer, codec: codec}, nil
	}
	return nil, errors.Wrapf(lastErr, "failed to create video %s", path)
}

// Codec returns the codec the file is written with.
func (s *FileSink) Codec() string {
	return s.codec
}

// Write encodes a frame.
func (s *FileSink) Write(frame video.Frame) error {
	mat, err := gocv.ImageToMatRGB(frame.Image)
	if err != nil {
		return errors.Wrapf(err, "failed to convert frame %d", frame.Index)
	}
	defer mat.Close()

	if err := s.writer.Write(mat); err != nil {
		return errors.Wrapf(err, "failed to write frame %d", frame.Index)
	}
	return nil
}

// Close flushes and releases the writer.
func (s *FileSink) Close() error {
	return s.writer.Close()
}

// ReadImage decodes an image file.
func ReadImage(path string) (image.Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.Errorf("failed to read image %s", path)
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to convert image %s", path)
	}
	return img, nil
}

// WriteImage encodes img to path; the format follows the extension.
func WriteImage(path string, img image.Image) error {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return errors.Wrapf(err, "failed to convert image %s", path)
	}
	defer mat.Close()

	if ok := gocv.IMWrite(path, mat); !ok {
		return errors.Errorf("failed to write image %s", path)
	}
	return nil
}
