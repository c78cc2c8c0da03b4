package cli

import (
	"fmt"
	"io"
	"os"
)

// writeDownload writes data to path, or to name in the working directory
// when path is empty. "-" writes to out.
func writeDownload(out io.Writer, path, name string, data []byte) (string, error) {
	if path == "-" {
		_, err := out.Write(data)
		return "", err
	}
	if path == "" {
		path = name
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
