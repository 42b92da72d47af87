package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const archiveDirName = "Archive"

// FileInfo describes one stored document.
type FileInfo struct {
	ID       string
	ModTime  time.Time
	Archived bool
}

// Dir is a flat directory of whole-document JSON files with an Archive/
// subdirectory for superseded versions and a per-entity version index.
// Documents are addressed by id, the filename without extension.
//
// Writes are whole-document and non-atomic; the last writer wins. The mutex
// only guards the version index against concurrent handler goroutines.
type Dir struct {
	path string
	mu   sync.Mutex
}

// Open prepares a document directory, creating it and its archive
// subdirectory as needed.
func Open(path string) (*Dir, error) {
	if err := os.MkdirAll(filepath.Join(path, archiveDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create document directory: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory root.
func (d *Dir) Path() string { return d.path }

func (d *Dir) file(id string) string {
	return filepath.Join(d.path, id+DocExt)
}

func (d *Dir) archivedFile(id string) string {
	return filepath.Join(d.path, archiveDirName, id+DocExt)
}

// Exists reports whether an active document with the given id exists.
func (d *Dir) Exists(id string) bool {
	_, err := os.Stat(d.file(id))
	return err == nil
}

// Read decodes the active document with the given id into v.
func (d *Dir) Read(id string, v any) error {
	return readJSON(d.file(id), id, v)
}

// ReadArchived decodes an archived document with the given id into v.
func (d *Dir) ReadArchived(id string, v any) error {
	return readJSON(d.archivedFile(id), id, v)
}

func readJSON(path, id string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("read %s: %w", id, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", id, err)
	}
	return nil
}

// Write encodes v as an indented JSON document under the given id,
// replacing any existing file, and records the id in the version index.
func (d *Dir) Write(id string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}
	if err := os.WriteFile(d.file(id), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", id, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.noteWritten(id + DocExt)
	return nil
}

// Delete removes the active document with the given id.
func (d *Dir) Delete(id string) error {
	if err := os.Remove(d.file(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", id, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.noteRemoved(id + DocExt)
	return nil
}

// Archive moves the active document with the given id into the Archive/
// subdirectory. The file is moved, not copied.
func (d *Dir) Archive(id string) error {
	src := d.file(id)
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("stat %s: %w", id, err)
	}
	if err := os.Rename(src, d.archivedFile(id)); err != nil {
		return fmt.Errorf("archive %s: %w", id, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.noteArchived(id + DocExt)
	return nil
}

// ArchiveAllWithPrefix archives every active document whose filename starts
// with prefix and returns how many files were moved.
func (d *Dir) ArchiveAllWithPrefix(prefix string) (int, error) {
	names, err := d.activeFilenames()
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, f := range names {
		if !strings.HasPrefix(f, prefix) {
			continue
		}
		if err := d.Archive(strings.TrimSuffix(f, DocExt)); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// ModTime returns the modification time of the active document.
func (d *Dir) ModTime(id string) (time.Time, error) {
	info, err := os.Stat(d.file(id))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// List enumerates documents. Archived documents are included when
// includeArchived is set, flagged accordingly.
func (d *Dir) List(includeArchived bool) ([]FileInfo, error) {
	infos, err := d.listDir(d.path, false)
	if err != nil {
		return nil, err
	}
	if includeArchived {
		archived, err := d.listDir(filepath.Join(d.path, archiveDirName), true)
		if err != nil {
			return nil, err
		}
		infos = append(infos, archived...)
	}
	return infos, nil
}

func (d *Dir) listDir(path string, archived bool) ([]FileInfo, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	var infos []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), DocExt) || e.Name() == indexFileName {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, FileInfo{
			ID:       strings.TrimSuffix(e.Name(), DocExt),
			ModTime:  fi.ModTime(),
			Archived: archived,
		})
	}
	return infos, nil
}

// activeFilenames returns the filenames of all active documents.
func (d *Dir) activeFilenames() ([]string, error) {
	infos, err := d.listDir(d.path, false)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		names = append(names, fi.ID+DocExt)
	}
	return names, nil
}
