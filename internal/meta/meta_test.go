package meta

import (
	"testing"
)

func TestInitState(t *testing.T) {
	m := Init("/idx", "/idx/index.db")
	if m.SchemaVersion != SchemaVersion {
		t.Errorf("schemaVersion = %d", m.SchemaVersion)
	}
	if m.State != StateInitialized {
		t.Errorf("state = %q", m.State)
	}
	if m.Persistence.Metadata.Driver != "sqlite" || m.Persistence.Metadata.Path != "/idx/index.db" {
		t.Errorf("persistence = %+v", m.Persistence)
	}
	if m.Artifacts.IndexRoot != "/idx" {
		t.Errorf("artifacts = %+v", m.Artifacts)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := Init(dir, dir+"/index.db")
	m.State = StateIndexed
	m.FilesIndexed = 7
	m.Languages = []string{"go", "python"}
	m.RecordError("walker failed for a.py", "error")
	if err := m.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("sidecar should exist")
	}
	if loaded.State != StateIndexed || loaded.FilesIndexed != 7 {
		t.Errorf("loaded = %+v", loaded)
	}
	if len(loaded.Errors) != 1 || loaded.Errors[0].Message != "walker failed for a.py" {
		t.Errorf("errors = %v", loaded.Errors)
	}
}

func TestLoadMissing(t *testing.T) {
	m, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m != nil {
		t.Errorf("missing sidecar should be nil, got %+v", m)
	}
}

func TestMergePreservesCreatedAt(t *testing.T) {
	dir := t.TempDir()
	m := Init(dir, dir+"/index.db")
	m.CreatedAt = "2026-01-02T03:04:05Z"
	if err := m.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A later command loads, mutates, and re-saves.
	loaded, err := LoadOrInit(dir, dir+"/index.db")
	if err != nil {
		t.Fatalf("LoadOrInit: %v", err)
	}
	loaded.State = StateScanned
	loaded.RecordError("second run issue", "warning")
	if err := loaded.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	final, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if final.CreatedAt != "2026-01-02T03:04:05Z" {
		t.Errorf("createdAt not preserved: %q", final.CreatedAt)
	}
	if final.UpdatedAt == final.CreatedAt {
		t.Error("updatedAt should be restamped on save")
	}
	if final.State != StateScanned {
		t.Errorf("state = %q", final.State)
	}
}

func TestRecordCommand(t *testing.T) {
	m := Init("/idx", "/idx/index.db")
	m.RecordCommand("build", map[string]any{"extensions": []string{".go"}})
	if m.LastCommand == nil || m.LastCommand.Type != "build" || m.LastCommand.At == "" {
		t.Errorf("lastCommand = %+v", m.LastCommand)
	}
}
