package detectors

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// LoadLabels reads a labels file with one label per line. Blank lines and
// lines starting with '#' are skipped.
//
// Arguments:
//   - path: The labels file.
//
// Returns:
//   - []string: The labels in file order.
//   - error: If the file cannot be read or holds no labels.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open labels file %s", path)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read labels file %s", path)
	}
	if len(labels) == 0 {
		return nil, errors.Errorf("labels file %s is empty", path)
	}
	return labels, nil
}
