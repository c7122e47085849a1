// Package selector holds the file the user has chosen for upload.
package selector

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// AcceptHint is the advisory accepted-type hint shown next to the selector.
// It is never used to reject a file.
const AcceptHint = "image/*"

// ErrTooLarge is returned by Load when a file exceeds the size limit
var ErrTooLarge = errors.New("file exceeds upload size limit")

// File is an immutable snapshot of a chosen file
type File struct {
	Name     string
	Path     string
	MIMEType string
	Data     []byte
}

// Size returns the content length in bytes
func (f *File) Size() int {
	return len(f.Data)
}

// MatchesHint reports whether the MIME type satisfies AcceptHint
func (f *File) MatchesHint() bool {
	return strings.HasPrefix(f.MIMEType, "image/")
}

// ReadError describes a file that could not be loaded
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Selector holds the currently selected file. The zero value is empty and ready to use.
type Selector struct {
	mu      sync.RWMutex
	current *File
}

// Select replaces the held file unconditionally. A nil file is ignored.
func (s *Selector) Select(f *File) {
	if f == nil {
		return
	}
	s.mu.Lock()
	s.current = f
	s.mu.Unlock()
}

// Current returns the held file, if any
func (s *Selector) Current() (*File, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// Load reads path into a File. maxBytes <= 0 disables the size check.
func Load(path string, maxBytes int64) (*File, error) {
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, &ReadError{Path: cleanPath, Err: err}
	}
	if info.IsDir() {
		return nil, &ReadError{Path: cleanPath, Err: errors.New("is a directory")}
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, &ReadError{Path: cleanPath, Err: fmt.Errorf("%w (%d > %d bytes)", ErrTooLarge, info.Size(), maxBytes)}
	}

	// #nosec G304 - the user picks the file to upload
	fh, err := os.Open(cleanPath)
	if err != nil {
		return nil, &ReadError{Path: cleanPath, Err: err}
	}
	defer func() { _ = fh.Close() }()

	reader := io.Reader(fh)
	if maxBytes > 0 {
		// the file may grow between Stat and Read
		reader = io.LimitReader(fh, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, &ReadError{Path: cleanPath, Err: err}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, &ReadError{Path: cleanPath, Err: ErrTooLarge}
	}

	return &File{
		Name:     filepath.Base(cleanPath),
		Path:     cleanPath,
		MIMEType: DetectMIME(cleanPath, data),
		Data:     data,
	}, nil
}

// DetectMIME sniffs the content, falling back to the file extension
func DetectMIME(name string, data []byte) string {
	sniffed := http.DetectContentType(data)
	if sniffed != "application/octet-stream" && !strings.HasPrefix(sniffed, "text/plain") {
		return sniffed
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return byExt
	}
	return sniffed
}
