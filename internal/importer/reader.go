package importer

import (
	"fmt"
	"os"
	"path/filepath"
)

// SourceFile is a selected upload held in memory
type SourceFile struct {
	Name    string
	Content []byte
}

func NewSource(name string, content []byte) SourceFile {
	return SourceFile{Name: name, Content: content}
}

// ReadSource loads the whole file at path
func ReadSource(path string) (SourceFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return SourceFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return SourceFile{Name: filepath.Base(path), Content: content}, nil
}

func (f SourceFile) Text() string {
	return string(f.Content)
}
