package document

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
)

// loadText reads a plain text file as a single segment
func loadText(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read text file")
	}
	if len(content) == 0 {
		return nil, nil
	}
	return []string{string(content)}, nil
}
