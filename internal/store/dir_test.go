package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type testDoc struct {
	Name string `json:"name"`
}

func openTestDir(t *testing.T) *Dir {
	t.Helper()
	d, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return d
}

func TestWriteReadRoundtrip(t *testing.T) {
	d := openTestDir(t)

	if err := d.Write("Acme_Cloud_version1", testDoc{Name: "acme"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var got testDoc
	if err := d.Read("Acme_Cloud_version1", &got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Name != "acme" {
		t.Errorf("got %q, want %q", got.Name, "acme")
	}
}

func TestReadMissingReturnsNotFound(t *testing.T) {
	d := openTestDir(t)

	var got testDoc
	err := d.Read("nope", &got)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Read missing = %v, want ErrNotFound", err)
	}
}

func TestArchiveMovesFile(t *testing.T) {
	d := openTestDir(t)

	if err := d.Write("Acme_Cloud_version1", testDoc{Name: "acme"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := d.Archive("Acme_Cloud_version1"); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	var got testDoc
	if err := d.Read("Acme_Cloud_version1", &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read after archive = %v, want ErrNotFound", err)
	}
	if err := d.ReadArchived("Acme_Cloud_version1", &got); err != nil {
		t.Errorf("ReadArchived: %v", err)
	}

	if err := d.Archive("Acme_Cloud_version1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Archive = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	d := openTestDir(t)

	if err := d.Write("doc", testDoc{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := d.Delete("doc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := d.Delete("doc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestListFlagsArchived(t *testing.T) {
	d := openTestDir(t)

	mustWrite(t, d, "active_version1")
	mustWrite(t, d, "old_version1")
	if err := d.Archive("old_version1"); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	infos, err := d.List(false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 1 || infos[0].ID != "active_version1" || infos[0].Archived {
		t.Errorf("List(false) = %+v, want only active_version1", infos)
	}

	infos, err = d.List(true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("List(true) returned %d entries, want 2", len(infos))
	}
	archivedSeen := false
	for _, fi := range infos {
		if fi.ID == "old_version1" && fi.Archived {
			archivedSeen = true
		}
	}
	if !archivedSeen {
		t.Errorf("archived entry not flagged: %+v", infos)
	}
}

func TestNextVersionSequence(t *testing.T) {
	d := openTestDir(t)

	next, latest, err := d.NextVersion("Acme_Cloud")
	if err != nil {
		t.Fatalf("NextVersion: %v", err)
	}
	if next != 1 || latest != "" {
		t.Fatalf("fresh NextVersion = (%d, %q), want (1, \"\")", next, latest)
	}

	mustWrite(t, d, "Acme_Cloud_version1")
	next, latest, err = d.NextVersion("Acme_Cloud")
	if err != nil {
		t.Fatalf("NextVersion: %v", err)
	}
	if next != 2 || latest != "Acme_Cloud_version1" {
		t.Fatalf("NextVersion = (%d, %q), want (2, Acme_Cloud_version1)", next, latest)
	}

	if err := d.Archive("Acme_Cloud_version1"); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	mustWrite(t, d, "Acme_Cloud_version2")

	next, latest, err = d.NextVersion("Acme_Cloud")
	if err != nil {
		t.Fatalf("NextVersion: %v", err)
	}
	if next != 3 || latest != "Acme_Cloud_version2" {
		t.Fatalf("NextVersion = (%d, %q), want (3, Acme_Cloud_version2)", next, latest)
	}
}

func TestNextVersionContinuesPastArchivedOnly(t *testing.T) {
	d := openTestDir(t)

	mustWrite(t, d, "Acme_Cloud_version1")
	mustWrite(t, d, "Acme_Cloud_version2")
	if _, err := d.ArchiveAllWithPrefix("Acme_Cloud"); err != nil {
		t.Fatalf("ArchiveAllWithPrefix: %v", err)
	}

	// With every version archived the entity keeps counting upward
	// rather than restarting at 1.
	next, latest, err := d.NextVersion("Acme_Cloud")
	if err != nil {
		t.Fatalf("NextVersion: %v", err)
	}
	if next != 3 || latest != "" {
		t.Errorf("NextVersion = (%d, %q), want (3, \"\")", next, latest)
	}
}

func TestIndexRebuildFromFilenames(t *testing.T) {
	d := openTestDir(t)

	mustWrite(t, d, "Acme_Cloud_version1")
	mustWrite(t, d, "Acme_Cloud_version2")

	// Drop the index; the next resolution must rebuild it by scanning.
	if err := os.Remove(filepath.Join(d.Path(), indexFileName)); err != nil {
		t.Fatalf("remove index: %v", err)
	}

	next, latest, err := d.NextVersion("Acme_Cloud")
	if err != nil {
		t.Fatalf("NextVersion: %v", err)
	}
	if next != 3 || latest != "Acme_Cloud_version2" {
		t.Errorf("NextVersion after rebuild = (%d, %q), want (3, Acme_Cloud_version2)", next, latest)
	}
}

func TestArchiveAllWithPrefix(t *testing.T) {
	d := openTestDir(t)

	mustWrite(t, d, "Acme_Cloud_Action Tracker_version1")
	mustWrite(t, d, "Acme_Cloud_Action Tracker_version2")
	mustWrite(t, d, "Other_Deal_Action Tracker_version1")

	moved, err := d.ArchiveAllWithPrefix("Acme_Cloud_Action Tracker")
	if err != nil {
		t.Fatalf("ArchiveAllWithPrefix: %v", err)
	}
	if moved != 2 {
		t.Errorf("moved = %d, want 2", moved)
	}
	if !d.Exists("Other_Deal_Action Tracker_version1") {
		t.Errorf("unrelated entity was archived")
	}

	var doc testDoc
	if err := d.ReadArchived("Acme_Cloud_Action Tracker_version1", &doc); err != nil {
		t.Errorf("version1 not in archive: %v", err)
	}
	if err := d.ReadArchived("Acme_Cloud_Action Tracker_version2", &doc); err != nil {
		t.Errorf("version2 not in archive: %v", err)
	}
}

func mustWrite(t *testing.T, d *Dir, id string) {
	t.Helper()
	if err := d.Write(id, testDoc{Name: id}); err != nil {
		t.Fatalf("Write %s: %v", id, err)
	}
}
