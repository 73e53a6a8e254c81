package storage

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ranked-tracker/internal/logger"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const (
	// Rotation triggers
	MaxMatchesPerFile = 500
	MaxFileAge        = 24 * time.Hour

	fileTimeLayout = "2006-01-02_15-04-05.000"
)

// FileRotator appends archived matches to rotating JSONL files. Files being
// written live in hot/, closed files move to warm/, and compressed ones sit
// in cold/.
type FileRotator struct {
	mu sync.Mutex

	// Directories
	hotDir  string // Active writes
	warmDir string // Closed files
	coldDir string // Compressed archives

	// Current file state
	currentFile   *os.File
	currentWriter *bufio.Writer
	currentPath   string
	matchCount    int
	fileOpenedAt  time.Time

	log *logrus.Entry
}

// NewFileRotator creates a new rotator with the given base directory
func NewFileRotator(baseDir string) (*FileRotator, error) {
	hotDir := filepath.Join(baseDir, "hot")
	warmDir := filepath.Join(baseDir, "warm")
	coldDir := filepath.Join(baseDir, "cold")

	// Create directories
	for _, dir := range []string{hotDir, warmDir, coldDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	r := &FileRotator{
		hotDir:  hotDir,
		warmDir: warmDir,
		coldDir: coldDir,
		log:     logger.WithComponent("archive"),
	}

	// Open initial file
	if err := r.rotate(); err != nil {
		return nil, err
	}

	return r, nil
}

// Append writes one match as a JSON line and flushes it. The file is rotated
// when it is full or too old.
func (r *FileRotator) Append(match ArchivedMatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("failed to marshal match %s: %w", match.MatchID, err)
	}

	if _, err := r.currentWriter.Write(data); err != nil {
		return fmt.Errorf("failed to write match: %w", err)
	}
	if err := r.currentWriter.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	r.matchCount++

	// Flush after each match
	if err := r.currentWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	if r.shouldRotate() {
		return r.rotate()
	}
	return nil
}

// shouldRotate checks if we need to rotate to a new file
func (r *FileRotator) shouldRotate() bool {
	if r.currentFile == nil {
		return true
	}
	if r.matchCount >= MaxMatchesPerFile {
		return true
	}
	if time.Since(r.fileOpenedAt) >= MaxFileAge {
		return true
	}
	return false
}

// rotate closes current file and opens a new one
func (r *FileRotator) rotate() error {
	if r.currentFile != nil {
		if err := r.closeCurrent(); err != nil {
			return err
		}
	}

	filename := fmt.Sprintf("matches_%s.jsonl", time.Now().Format(fileTimeLayout))
	r.currentPath = filepath.Join(r.hotDir, filename)

	file, err := os.OpenFile(r.currentPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create new file: %w", err)
	}

	r.currentFile = file
	r.currentWriter = bufio.NewWriterSize(file, 64*1024) // 64KB buffer
	r.matchCount = 0
	r.fileOpenedAt = time.Now()

	r.log.WithField("file", filename).Debug("Opened archive file")
	return nil
}

// closeCurrent flushes and closes the hot file, moving it to warm when it
// holds anything
func (r *FileRotator) closeCurrent() error {
	if err := r.currentWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush before rotation: %w", err)
	}
	if err := r.currentFile.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	r.currentFile = nil

	name := filepath.Base(r.currentPath)
	if r.matchCount == 0 {
		os.Remove(r.currentPath)
		return nil
	}

	if err := os.Rename(r.currentPath, filepath.Join(r.warmDir, name)); err != nil {
		return fmt.Errorf("failed to move to warm storage: %w", err)
	}
	r.log.WithFields(logrus.Fields{"file": name, "matches": r.matchCount}).Info("Moved archive file to warm storage")
	return nil
}

// Close flushes and closes the current file
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentFile == nil {
		return nil
	}
	return r.closeCurrent()
}

// Stats returns current rotator statistics
func (r *FileRotator) Stats() (matchesInCurrentFile int, currentFileName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matchCount, filepath.Base(r.currentPath)
}

// CompressWarm moves every warm file into cold storage
func (r *FileRotator) CompressWarm() (int, error) {
	files, err := filepath.Glob(filepath.Join(r.warmDir, "*.jsonl"))
	if err != nil {
		return 0, err
	}
	for i, f := range files {
		if err := CompressToCold(f, r.coldDir); err != nil {
			return i, fmt.Errorf("failed to compress %s: %w", filepath.Base(f), err)
		}
	}
	return len(files), nil
}

// CompressToCold compresses a warm file and moves it to cold storage
func CompressToCold(warmPath, coldDir string) error {
	src, err := os.Open(warmPath)
	if err != nil {
		return err
	}
	defer src.Close()

	coldPath := filepath.Join(coldDir, filepath.Base(warmPath)+".gz")
	dst, err := os.Create(coldPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	gzWriter := gzip.NewWriter(dst)
	if _, err := io.Copy(gzWriter, src); err != nil {
		return err
	}
	if err := gzWriter.Close(); err != nil {
		return err
	}

	return os.Remove(warmPath)
}
