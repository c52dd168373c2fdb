package params

import (
	"fmt"
	"io"
	"maps"
	"os"

	"github.com/joho/godotenv"
)

// ParseLabelFile parses .env formatted content into a label map.
func ParseLabelFile(r io.Reader) (map[string]string, error) {
	m, err := godotenv.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing labels: %w", err)
	}
	return m, nil
}

// ReadLabelFiles reads each file in order. Later files override earlier ones.
func ReadLabelFiles(paths ...string) (map[string]string, error) {
	result := make(map[string]string)
	for _, path := range paths {
		m, err := readLabelFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading labels file %s: %w", path, err)
		}
		maps.Copy(result, m)
	}
	return result, nil
}

func readLabelFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseLabelFile(f)
}

// Resolve merges label files and key=value pairs. Pairs win over files.
func Resolve(files, pairs []string) (map[string]string, error) {
	result, err := ReadLabelFiles(files...)
	if err != nil {
		return nil, err
	}
	fromPairs, err := ParseKeyValuePairs(pairs)
	if err != nil {
		return nil, err
	}
	maps.Copy(result, fromPairs)
	return result, nil
}
