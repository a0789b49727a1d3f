// Package manifest persists the metadata describing one simulator run —
// seed, shot/qubit counts, a digest of the circuit that was executed, and a
// gate-usage histogram — next to the sample stream it produced. It does not
// describe the sample bytes themselves (those are the record.Writer's
// concern); a manifest is the ambient "what ran, with what configuration"
// record kept alongside the run's output.
package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hupe1980/stabframe/codec"
	"github.com/hupe1980/stabframe/internal/fs"
)

const (
	// CurrentVersion is the manifest schema version this package writes and
	// the only version Load accepts.
	CurrentVersion = 1

	currentFileName = "CURRENT"
)

// RunManifest describes exactly one construction-to-completion run of one
// Simulator instance. It is immutable once Done is set.
type RunManifest struct {
	Version int `json:"version"`

	Seed          uint64         `json:"seed"`
	NumQubits     int            `json:"num_qubits"`
	NumShots      int            `json:"num_shots"`
	CircuitDigest uint32         `json:"circuit_digest"` // CRC32C over the instruction stream
	GateHistogram map[string]int `json:"gate_histogram"`
	// UsedQubits holds the sorted, deduplicated qubit indices the circuit
	// actually referenced (circuit.Circuit.UsedQubits, flattened), which may
	// be a sparse subset of [0, NumQubits).
	UsedQubits []uint32 `json:"used_qubits,omitempty"`

	StartedAt time.Time `json:"started_at"`
	Done      time.Time `json:"done,omitzero"`
}

// IsDone reports whether the run has finished.
func (m RunManifest) IsDone() bool { return !m.Done.IsZero() }

// Store persists RunManifest values to a directory, one JSON file per run
// plus an atomically-rewritten CURRENT pointer naming the latest file: a
// new manifest file is written, fsynced, and only then does CURRENT get
// rewritten to point at it, so a crash mid-write never leaves CURRENT
// pointing at a partial file.
type Store struct {
	fs    fs.FileSystem
	dir   string
	codec codec.Codec
	mu    sync.Mutex

	nextID uint64
}

// NewStore returns a Store that writes manifests under dir using
// codec.Default. Use WithCodec to select a different encoding.
func NewStore(fsys fs.FileSystem, dir string) *Store {
	return &Store{fs: fsys, dir: dir, codec: codec.Default}
}

// WithCodec overrides the codec used to (de)serialize manifest files.
func (s *Store) WithCodec(c codec.Codec) *Store {
	if c != nil {
		s.codec = c
	}
	return s
}

// Save writes m to a new manifest file and atomically repoints CURRENT at
// it, returning the filename written (relative to dir).
func (s *Store) Save(m *RunManifest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.Version = CurrentVersion
	s.nextID++
	filename := fmt.Sprintf("run-%06d.json", s.nextID)
	path := filepath.Join(s.dir, filename)

	data, err := s.codec.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("manifest: marshaling run manifest: %w", err)
	}

	if err := s.writeAtomic(path, data); err != nil {
		return "", err
	}
	if err := s.writeAtomic(filepath.Join(s.dir, currentFileName), []byte(filename)); err != nil {
		return "", err
	}
	return filename, nil
}

// Load reads the manifest CURRENT points at. Returns os.ErrNotExist (via
// errors.Is) if no manifest has ever been saved in dir.
func (s *Store) Load() (*RunManifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.readFile(filepath.Join(s.dir, currentFileName))
	if err != nil {
		return nil, err
	}
	data, err := s.readFile(filepath.Join(s.dir, string(content)))
	if err != nil {
		return nil, err
	}
	var m RunManifest
	if err := s.codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decoding %s: %w", content, err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("manifest: unsupported version %d (expected %d)", m.Version, CurrentVersion)
	}
	return &m, nil
}

func (s *Store) readFile(path string) ([]byte, error) {
	f, err := s.fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Store) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("manifest: opening %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("manifest: writing %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("manifest: syncing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("manifest: closing %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("manifest: renaming %s to %s: %w", tmp, path, err)
	}
	return nil
}
