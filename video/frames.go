package video

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FrameFile is a pre-extracted frame on disk.
type FrameFile struct {
	// Path is the path to the image file.
	Path string
	// Number is the frame number parsed from the file name.
	Number int
}

// ListFrameFiles lists the frame images of a directory in frame order.
//
// Files are named "frame-N.ext" or "N.ext" with ext one of jpg, jpeg, png or
// bmp. Other files are ignored.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []FrameFile: The frames sorted by number.
//   - error: If the directory cannot be read or holds no frames.
func ListFrameFiles(dir string) ([]FrameFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read frame directory %s", dir)
	}

	var files []FrameFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := filepath.Ext(name)
		switch strings.ToLower(ext) {
		case ".jpg", ".jpeg", ".png", ".bmp":
		default:
			continue
		}

		number, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSuffix(name, ext), "frame-"))
		if err != nil {
			continue
		}
		files = append(files, FrameFile{
			Path:   filepath.Join(dir, name),
			Number: number,
		})
	}

	if len(files) == 0 {
		return nil, errors.Errorf("no frames found in %s", dir)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Number < files[j].Number
	})
	return files, nil
}
