package capture

import (
	"github.com/nvr-ai/go-behavior/video"
	"github.com/pkg/errors"
)

// DirectorySource reads pre-extracted frames ("frame-N.jpg") from a directory.
type DirectorySource struct {
	files []video.FrameFile
	info  video.Info
	next  int
}

// OpenDirectory lists the frames of dir. The first frame is decoded to learn
// the dimensions; fps is taken as given since stills carry no frame rate.
//
// Arguments:
//   - dir: The frame directory.
//   - fps: The frame rate the frames were extracted at.
//
// Returns:
//   - *DirectorySource: The source.
//   - error: If the directory holds no readable frames.
func OpenDirectory(dir string, fps float64) (*DirectorySource, error) {
	files, err := video.ListFrameFiles(dir)
	if err != nil {
		return nil, err
	}

	first, err := ReadImage(files[0].Path)
	if err != nil {
		return nil, err
	}
	bounds := first.Bounds()

	return &DirectorySource{
		files: files,
		info: video.Info{
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
			FPS:        fps,
			FrameCount: len(files),
		},
	}, nil
}

// Info returns the properties of the frame sequence.
func (s *DirectorySource) Info() video.Info {
	return s.info
}

// Read decodes the next frame. Frames are indexed by position, not by the
// number in their file name.
func (s *DirectorySource) Read() (video.Frame, bool, error) {
	if s.next >= len(s.files) {
		return video.Frame{}, false, nil
	}

	file := s.files[s.next]
	img, err := ReadImage(file.Path)
	if err != nil {
		return video.Frame{}, false, errors.Wrapf(err, "frame %d", file.Number)
	}

	frame := video.Frame{Index: s.next, Image: img}
	s.next++
	return frame, true, nil
}

// Close is a no-op.
func (s *DirectorySource) Close() error {
	return nil
}
