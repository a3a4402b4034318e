// Package state persists the last known adapter snapshot set across
// restarts, so a freshly started monitor has a baseline to diff against
// instead of treating every currently-bound address as newly added.
package state

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/ipwatchd/ipwatchd/internal/network"
)

const FileVersion = 1

// Store persists and reloads a snapshot set. Implementations must be safe
// for concurrent use.
type Store interface {
	Save(snapshots []*network.AdapterSnapshot) error
	Load() (LoadResult, error)
}

// LoadResult mirrors the three outcomes a restart can observe: nothing
// saved yet, a file that exists but failed to parse, or a usable snapshot
// set.
type LoadResult struct {
	Found     bool
	Corrupted bool
	Reason    string
	Snapshots []*network.AdapterSnapshot
}

type fileFormat struct {
	Version  int              `json:"version"`
	SavedAt  int64            `json:"saved_at"`
	Adapters []snapshotRecord `json:"adapters"`
}

type snapshotRecord struct {
	Name string   `json:"name"`
	Kind string   `json:"kind"`
	Code uint32   `json:"code,omitempty"`
	V4   []string `json:"v4,omitempty"`
	V6   []string `json:"v6,omitempty"`
}

// FileStore persists state as JSON at Path, using a write-to-temp-then-
// rename sequence so a crash mid-write never leaves a half-written file
// behind for the next Load to trip over.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Save(snapshots []*network.AdapterSnapshot) error {
	records := make([]snapshotRecord, 0, len(snapshots))
	for _, snap := range snapshots {
		rec := snapshotRecord{Name: snap.Name, Kind: string(snap.Kind.Name), Code: snap.Kind.Code}
		for _, ip := range snap.IPv4() {
			rec.V4 = append(rec.V4, ip.String())
		}
		for _, ip := range snap.IPv6() {
			rec.V6 = append(rec.V6, ip.String())
		}
		records = append(records, rec)
	}

	doc := fileFormat{
		Version:  FileVersion,
		SavedAt:  time.Now().Unix(),
		Adapters: records,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("state: write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("state: rename temp file: %w", err)
	}
	return nil
}

func (s *FileStore) Load() (LoadResult, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return LoadResult{Found: false}, nil
		}
		return LoadResult{}, fmt.Errorf("state: read %s: %w", s.Path, err)
	}

	var doc fileFormat
	if err := json.Unmarshal(data, &doc); err != nil {
		return LoadResult{Found: true, Corrupted: true, Reason: err.Error()}, nil
	}
	if doc.Version != FileVersion {
		return LoadResult{Found: true, Corrupted: true, Reason: fmt.Sprintf("unsupported version %d", doc.Version)}, nil
	}

	snapshots := make([]*network.AdapterSnapshot, 0, len(doc.Adapters))
	for _, rec := range doc.Adapters {
		kind := network.AdapterKind{Name: network.AdapterKindName(rec.Kind), Code: rec.Code}
		snap := network.NewAdapterSnapshot(rec.Name, kind)
		for _, addr := range rec.V4 {
			snap.AddAddress(net.ParseIP(addr))
		}
		for _, addr := range rec.V6 {
			snap.AddAddress(net.ParseIP(addr))
		}
		snapshots = append(snapshots, snap)
	}
	return LoadResult{Found: true, Snapshots: snapshots}, nil
}

// EnsureDir creates the parent directory of path if it does not exist yet.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
