package storage

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// maxLineSize bounds a single archived match line
const maxLineSize = 4 * 1024 * 1024

// ErrStop ends ReadArchive early without an error
var ErrStop = errors.New("storage: stop reading")

// ReadArchive calls fn for every archived match under baseDir, oldest file
// first: cold, then warm, then hot. Within a file, lines are read in order.
func ReadArchive(baseDir string, fn func(ArchivedMatch) error) error {
	var files []string
	for _, pattern := range []string{
		filepath.Join(baseDir, "cold", "*.jsonl.gz"),
		filepath.Join(baseDir, "warm", "*.jsonl"),
		filepath.Join(baseDir, "hot", "*.jsonl"),
	} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return err
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}

	for _, f := range files {
		if err := readFile(f, fn); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

func readFile(path string, fn func(ArchivedMatch) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
		}
		defer gz.Close()
		r = gz
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var m ArchivedMatch
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			return fmt.Errorf("%s:%d: %w", filepath.Base(path), line, err)
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return scanner.Err()
}
