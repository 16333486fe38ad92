package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Reader enumerates and streams the CSV entries of one raw source archive.
// Implementations are read-only; Open may be called for any name returned by
// Entries, one entry at a time.
type Reader interface {
	// Entries returns CSV entry names in a stable order.
	Entries() []string

	// Open returns a streamed reader for one entry. The caller owns the
	// returned ReadCloser.
	Open(name string) (io.ReadCloser, error)

	// Close releases the underlying container.
	Close() error
}

// Open opens path as an archive: a directory of extracted CSV files, or a
// zip container.
func Open(path string) (Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("access archive %s: %w", path, err)
	}
	if info.IsDir() {
		return openDir(path)
	}
	return openZip(path)
}

// Symbol derives the instrument code from an entry name: the base name
// without its extension. The symbol never comes from row content.
func Symbol(entry string) string {
	base := filepath.Base(entry)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// zipReader reads entries out of a zip container without extracting it.
type zipReader struct {
	rc      *zip.ReadCloser
	entries []string
	files   map[string]*zip.File
}

func openZip(path string) (*zipReader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}

	r := &zipReader{
		rc:    rc,
		files: make(map[string]*zip.File),
	}
	// Container order is the stable enumeration order.
	for _, f := range rc.File {
		if f.FileInfo().IsDir() || !isCSV(f.Name) {
			continue
		}
		r.entries = append(r.entries, f.Name)
		r.files[f.Name] = f
	}
	return r, nil
}

func (r *zipReader) Entries() []string { return r.entries }

func (r *zipReader) Open(name string) (io.ReadCloser, error) {
	f, ok := r.files[name]
	if !ok {
		return nil, fmt.Errorf("archive entry %s: %w", name, os.ErrNotExist)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open archive entry %s: %w", name, err)
	}
	return rc, nil
}

func (r *zipReader) Close() error { return r.rc.Close() }

// dirReader serves already-extracted CSV files from a directory.
type dirReader struct {
	root    string
	entries []string
}

func openDir(root string) (*dirReader, error) {
	des, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read archive dir %s: %w", root, err)
	}

	r := &dirReader{root: root}
	// os.ReadDir sorts by name, so enumeration order is stable.
	for _, de := range des {
		if de.IsDir() || !isCSV(de.Name()) {
			continue
		}
		r.entries = append(r.entries, de.Name())
	}
	return r, nil
}

func (r *dirReader) Entries() []string { return r.entries }

func (r *dirReader) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(r.root, name))
	if err != nil {
		return nil, fmt.Errorf("open archive entry %s: %w", name, err)
	}
	return f, nil
}

func (r *dirReader) Close() error { return nil }
