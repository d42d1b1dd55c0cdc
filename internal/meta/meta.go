// Package meta manages the metadata.json sidecar next to the index database.
// The sidecar is created once and merged on later commands, never replaced,
// so createdAt and accumulated errors survive rebuilds.
package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"codescope/internal/entity"
)

// SchemaVersion is bumped when the sidecar layout changes incompatibly.
const SchemaVersion = 1

// FileName is the sidecar file inside an index root.
const FileName = "metadata.json"

// Index lifecycle states.
const (
	StateInitialized = "initialized"
	StateScanned     = "scanned"
	StateIndexed     = "indexed"
)

// Resources describes the resource envelope the indexer was configured with.
type Resources struct {
	MaxWorkers   int `json:"maxWorkers"`
	MaxMemoryMb  int `json:"maxMemoryMb"`
	DiskBudgetMb int `json:"diskBudgetMb"`
}

// Backend describes one persistence backend.
type Backend struct {
	Driver string `json:"driver"`
	Path   string `json:"path"`
	Status string `json:"status"`
}

// Persistence describes the index's storage backends.
type Persistence struct {
	Metadata Backend `json:"metadata"`
	Vectors  Backend `json:"vectors"`
}

// ACL mirrors the filesystem gate configuration.
type ACL struct {
	Enforced   bool     `json:"enforced"`
	ReadRoots  []string `json:"readRoots"`
	WriteRoots []string `json:"writeRoots"`
}

// Parser describes how one language is parsed.
type Parser struct {
	Strategy string `json:"strategy"`
	Status   string `json:"status"`
}

// Artifacts locates the on-disk artifacts of this index.
type Artifacts struct {
	MetadataPath string `json:"metadataPath"`
	IndexRoot    string `json:"indexRoot"`
}

// Command records the last command executed against the index.
type Command struct {
	Type    string         `json:"type"`
	At      string         `json:"at"`
	Options map[string]any `json:"options,omitempty"`
}

// FileDiagnostic is a diagnostic attributed to the file it came from.
type FileDiagnostic struct {
	File     string           `json:"file"`
	Severity string           `json:"severity"`
	Message  string           `json:"message"`
	Location *entity.Location `json:"location,omitempty"`
}

// ScanInfo summarizes the last scan/build.
type ScanInfo struct {
	At                string           `json:"at"`
	Cwd               string           `json:"cwd"`
	TotalFiles        int              `json:"totalFiles"`
	DurationMs        int64            `json:"durationMs"`
	Pattern           string           `json:"pattern"`
	Extensions        []string         `json:"extensions"`
	CountsByLanguage  map[string]int   `json:"countsByLanguage"`
	CountsByExtension map[string]int   `json:"countsByExtension"`
	SymbolCount       int              `json:"symbolCount"`
	RelationCount     int              `json:"relationCount"`
	SymbolErrors      []string         `json:"symbolErrors"`
	SymbolDiagnostics []FileDiagnostic `json:"symbolDiagnostics"`
	ScanID            int64            `json:"scanId"`
}

// ErrorEntry is one retained error, verbatim.
type ErrorEntry struct {
	At       string `json:"at"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Metadata is the sidecar document.
type Metadata struct {
	SchemaVersion int               `json:"schemaVersion"`
	CreatedAt     string            `json:"createdAt"`
	UpdatedAt     string            `json:"updatedAt"`
	FilesIndexed  int               `json:"filesIndexed"`
	Languages     []string          `json:"languages"`
	State         string            `json:"state"`
	Resources     Resources         `json:"resources"`
	Persistence   Persistence       `json:"persistence"`
	ACL           ACL               `json:"acl"`
	Parsers       map[string]Parser `json:"parsers"`
	Artifacts     Artifacts         `json:"artifacts"`
	LastCommand   *Command          `json:"lastCommand,omitempty"`
	LastScan      *ScanInfo         `json:"lastScan,omitempty"`
	Errors        []ErrorEntry      `json:"errors"`
}

// Path returns the sidecar path for an index root.
func Path(indexRoot string) string {
	return filepath.Join(indexRoot, FileName)
}

// Init builds a fresh sidecar document for the given index root.
func Init(indexRoot, dbPath string) *Metadata {
	now := isoNow()
	return &Metadata{
		SchemaVersion: SchemaVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
		State:         StateInitialized,
		Languages:     []string{},
		Persistence: Persistence{
			Metadata: Backend{Driver: "sqlite", Path: dbPath, Status: "ready"},
			Vectors:  Backend{Driver: "none", Status: "disabled"},
		},
		Parsers: map[string]Parser{},
		Artifacts: Artifacts{
			MetadataPath: Path(indexRoot),
			IndexRoot:    indexRoot,
		},
		Errors: []ErrorEntry{},
	}
}

// Load reads the sidecar from an index root. A missing file returns (nil, nil).
func Load(indexRoot string) (*Metadata, error) {
	data, err := os.ReadFile(Path(indexRoot))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return &m, nil
}

// LoadOrInit returns the existing sidecar, or a fresh one if none exists yet.
func LoadOrInit(indexRoot, dbPath string) (*Metadata, error) {
	m, err := Load(indexRoot)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return Init(indexRoot, dbPath), nil
	}
	return m, nil
}

// Save writes the sidecar, stamping updatedAt. createdAt is preserved from
// the document itself: merge into a loaded document, never a fresh one,
// unless the sidecar is genuinely new.
func (m *Metadata) Save(indexRoot string) error {
	m.UpdatedAt = isoNow()
	if m.CreatedAt == "" {
		m.CreatedAt = m.UpdatedAt
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.MkdirAll(indexRoot, 0o755); err != nil {
		return fmt.Errorf("mkdir index root: %w", err)
	}
	tmp := Path(indexRoot) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp, Path(indexRoot)); err != nil {
		return fmt.Errorf("replace metadata: %w", err)
	}
	return nil
}

// RecordCommand stamps the last executed command.
func (m *Metadata) RecordCommand(cmdType string, options map[string]any) {
	m.LastCommand = &Command{Type: cmdType, At: isoNow(), Options: options}
}

// RecordError appends a retained error entry.
func (m *Metadata) RecordError(message, severity string) {
	m.Errors = append(m.Errors, ErrorEntry{At: isoNow(), Message: message, Severity: severity})
}

func isoNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
