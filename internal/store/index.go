package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

const indexFileName = "index.json"

// indexEntry tracks the version state of one entity (a client+opportunity
// prefix): the latest active version, the filename holding it, and every
// archived version number.
type indexEntry struct {
	Latest     int    `json:"latest"`
	LatestFile string `json:"latestFile,omitempty"`
	Archived   []int  `json:"archived,omitempty"`
}

type indexFile struct {
	Entities map[string]indexEntry `json:"entities"`
}

// NextVersion resolves the next version number and the current latest
// document id for an entity prefix. The per-directory index is
// authoritative; when it is missing or does not know the entity, the answer
// is rebuilt by scanning filenames.
func (d *Dir) NextVersion(prefix string) (int, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := d.loadIndexLocked()
	if e, ok := idx.Entities[prefix]; ok {
		next := e.Latest
		for _, v := range e.Archived {
			if v > next {
				next = v
			}
		}
		latest := ""
		if e.LatestFile != "" {
			latest = trimExt(e.LatestFile)
		}
		return next + 1, latest, nil
	}

	names, err := d.activeFilenames()
	if err != nil {
		return 0, "", err
	}
	next, latestFile := NextVersionIn(names, prefix)
	return next, trimExt(latestFile), nil
}

// RebuildIndex discards the persisted index and rebuilds it from the
// directory contents.
func (d *Dir) RebuildIndex() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := d.scanIndexLocked()
	return d.saveIndexLocked(idx)
}

func (d *Dir) indexPath() string {
	return filepath.Join(d.path, indexFileName)
}

// loadIndexLocked reads the persisted index, rebuilding it from a filename
// scan when it is missing or unreadable. Callers hold d.mu.
func (d *Dir) loadIndexLocked() *indexFile {
	data, err := os.ReadFile(d.indexPath())
	if err == nil {
		var idx indexFile
		if json.Unmarshal(data, &idx) == nil && idx.Entities != nil {
			return &idx
		}
	}

	idx := d.scanIndexLocked()
	if err := d.saveIndexLocked(idx); err != nil {
		slog.Warn("version index rebuild not persisted", "dir", d.path, "error", err)
	}
	return idx
}

// scanIndexLocked derives the full index from filenames, grouping files by
// their entity id and applying the version-parse rules.
func (d *Dir) scanIndexLocked() *indexFile {
	idx := &indexFile{Entities: make(map[string]indexEntry)}

	names, err := d.activeFilenames()
	if err == nil {
		for _, f := range names {
			entity := EntityOf(f)
			v := ParseVersion(f)
			e := idx.Entities[entity]
			if v > e.Latest || (v == e.Latest && f > e.LatestFile) {
				e.Latest = v
				e.LatestFile = f
			}
			idx.Entities[entity] = e
		}
	}

	archived, err := d.listDir(filepath.Join(d.path, archiveDirName), true)
	if err == nil {
		for _, fi := range archived {
			f := fi.ID + DocExt
			entity := EntityOf(f)
			e := idx.Entities[entity]
			e.Archived = appendVersion(e.Archived, ParseVersion(f))
			idx.Entities[entity] = e
		}
	}
	return idx
}

func (d *Dir) saveIndexLocked(idx *indexFile) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(d.indexPath(), data, 0o644)
}

// noteWritten records a newly written document in the index.
func (d *Dir) noteWritten(filename string) {
	idx := d.loadIndexLocked()
	entity := EntityOf(filename)
	v := ParseVersion(filename)

	e := idx.Entities[entity]
	if v > e.Latest || e.LatestFile == "" || (v == e.Latest && filename > e.LatestFile) {
		e.Latest = v
		e.LatestFile = filename
	}
	idx.Entities[entity] = e
	d.persistLocked(idx)
}

// noteArchived records an archive move in the index.
func (d *Dir) noteArchived(filename string) {
	idx := d.loadIndexLocked()
	entity := EntityOf(filename)

	e := idx.Entities[entity]
	e.Archived = appendVersion(e.Archived, ParseVersion(filename))
	if e.LatestFile == filename {
		e.Latest, e.LatestFile = d.rescanEntityLocked(entity)
	}
	idx.Entities[entity] = e
	d.persistLocked(idx)
}

// noteRemoved records a deletion in the index.
func (d *Dir) noteRemoved(filename string) {
	idx := d.loadIndexLocked()
	entity := EntityOf(filename)

	e, ok := idx.Entities[entity]
	if !ok {
		return
	}
	if e.LatestFile == filename {
		e.Latest, e.LatestFile = d.rescanEntityLocked(entity)
	}
	if e.LatestFile == "" && len(e.Archived) == 0 {
		delete(idx.Entities, entity)
	} else {
		idx.Entities[entity] = e
	}
	d.persistLocked(idx)
}

// rescanEntityLocked recomputes the latest active version of one entity
// from the directory contents.
func (d *Dir) rescanEntityLocked(entity string) (int, string) {
	names, err := d.activeFilenames()
	if err != nil {
		return 0, ""
	}
	latest := 0
	latestFile := ""
	for _, f := range names {
		if EntityOf(f) != entity {
			continue
		}
		v := ParseVersion(f)
		if v > latest || (v == latest && f > latestFile) {
			latest = v
			latestFile = f
		}
	}
	return latest, latestFile
}

func (d *Dir) persistLocked(idx *indexFile) {
	if err := d.saveIndexLocked(idx); err != nil {
		slog.Warn("version index not persisted", "dir", d.path, "error", err)
	}
}

func appendVersion(versions []int, v int) []int {
	for _, existing := range versions {
		if existing == v {
			return versions
		}
	}
	versions = append(versions, v)
	sort.Ints(versions)
	return versions
}

func trimExt(filename string) string {
	if filename == "" {
		return ""
	}
	return filename[:len(filename)-len(DocExt)]
}
