package dag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/tabflow/errors"
)

// Pipeline file extensions, in lookup order.
var extensions = []string{".yaml", ".yml", ".json"}

// PipelineLoader loads pipeline documents by name.
type PipelineLoader interface {
	Load(name string) (*Document, error)
}

// FilePipelineLoader loads pipeline documents from directories on disk.
type FilePipelineLoader struct {
	dirs []string
}

// NewFilePipelineLoader creates a loader that searches the given
// directories.
func NewFilePipelineLoader(dirs ...string) PipelineLoader {
	return &FilePipelineLoader{dirs: dirs}
}

// Load looks for {name}.yaml, {name}.yml and {name}.json in each directory
// and then in its subdirectories.
func (l *FilePipelineLoader) Load(name string) (*Document, error) {
	for _, dir := range l.dirs {
		for _, ext := range extensions {
			path := filepath.Join(dir, name+ext)
			if doc, err := LoadFile(path); err == nil {
				return doc, nil
			} else if !errors.HasCode(err, errors.ErrCodeNotFound) {
				return nil, err
			}

			matches, _ := filepath.Glob(filepath.Join(dir, "*", name+ext))
			for _, match := range matches {
				if doc, err := LoadFile(match); err == nil {
					return doc, nil
				}
			}
		}
	}
	return nil, errors.NotFound("pipeline", name).WithDetail("dirs", l.dirs)
}

// LoadFile reads a document. The format follows the extension: JSON for
// .json, YAML otherwise.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NotFound("pipeline", path)
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	doc, err := Decode(data, isJSON(path))
	if err != nil {
		return nil, errors.InvalidDocument(fmt.Sprintf("parsing %s: %v", path, err)).WithCause(err)
	}
	return doc, nil
}

// Decode parses a document from JSON or YAML.
func Decode(data []byte, asJSON bool) (*Document, error) {
	var doc Document
	var err error
	if asJSON {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, err
	}
	if doc.Nodes == nil {
		doc.Nodes = make(map[int]NodeDocument)
	}
	return &doc, nil
}

// SaveFile writes a document, choosing the format from the extension.
func SaveFile(path string, doc *Document) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return errors.Internal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Internal(err)
	}
	return nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
