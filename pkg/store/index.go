package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Stephen-Collins-tech/hotspots/pkg/snapshot"
)

// IndexSchemaVersion is the schema version written to index.json.
const IndexSchemaVersion = 1

// IndexEntry identifies one known commit: its SHA, first-parent chain,
// and commit timestamp (unix seconds).
type IndexEntry struct {
	SHA       string   `json:"sha"`
	Parents   []string `json:"parents"`
	Timestamp int64    `json:"timestamp"`
}

// Index is the small, human-readable ledger of every commit a store
// holds a snapshot for. Entries are sorted by (timestamp asc, sha asc).
type Index struct {
	SchemaVersion   int          `json:"schema_version"`
	CompactionLevel *int         `json:"compaction_level,omitempty"`
	Commits         []IndexEntry `json:"commits"`
}

func sortIndex(entries []IndexEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Timestamp != entries[j].Timestamp {
			return entries[i].Timestamp < entries[j].Timestamp
		}

		return entries[i].SHA < entries[j].SHA
	})
}

// LoadIndex reads index.json, returning an empty v1 Index if it does
// not yet exist.
func (s *Store) LoadIndex() (Index, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Index{SchemaVersion: IndexSchemaVersion, Commits: []IndexEntry{}}, nil
		}

		return Index{}, fmt.Errorf("store: read index: %w", err)
	}

	var idx Index

	if unmarshalErr := json.Unmarshal(data, &idx); unmarshalErr != nil {
		return Index{}, fmt.Errorf("store: unmarshal index: %w", unmarshalErr)
	}

	return idx, nil
}

// SaveIndex rewrites index.json atomically.
func (s *Store) SaveIndex(idx Index) error {
	sortIndex(idx.Commits)

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal index: %w", err)
	}

	return atomicWriteFile(s.indexPath(), data)
}

// AppendToIndex inserts snap's (sha, parents, timestamp) into the
// index if absent, keeping entries sorted, and rewrites it atomically.
// Idempotent: re-appending the same SHA is a no-op write.
func (s *Store) AppendToIndex(snap snapshot.Snapshot) error {
	idx, err := s.LoadIndex()
	if err != nil {
		return err
	}

	for _, e := range idx.Commits {
		if e.SHA == snap.Commit.SHA {
			return nil
		}
	}

	idx.Commits = append(idx.Commits, IndexEntry{
		SHA:       snap.Commit.SHA,
		Parents:   snap.Commit.Parents,
		Timestamp: snap.Commit.Timestamp,
	})

	return s.SaveIndex(idx)
}

// RebuildIndex scans snapshots/ and rebuilds index.json from scratch in
// canonical order, skipping files that fail to parse. It returns the
// paths of any corrupt snapshot files it skipped so the caller can warn.
func (s *Store) RebuildIndex() ([]string, error) {
	entries, err := os.ReadDir(s.snapshotsDir())
	if err != nil {
		if os.IsNotExist(err) {
			empty := Index{SchemaVersion: IndexSchemaVersion, Commits: []IndexEntry{}}

			return nil, s.SaveIndex(empty)
		}

		return nil, fmt.Errorf("store: read snapshots dir: %w", err)
	}

	var (
		commits []IndexEntry
		skipped []string
	)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, tmpSuffix) {
			continue
		}

		sha, ok := snapshotSHAFromFilename(name)
		if !ok {
			continue
		}

		snap, loadErr := s.LoadSnapshot(sha)
		if loadErr != nil {
			skipped = append(skipped, name)

			continue
		}

		commits = append(commits, IndexEntry{
			SHA:       snap.Commit.SHA,
			Parents:   snap.Commit.Parents,
			Timestamp: snap.Commit.Timestamp,
		})
	}

	idx := Index{SchemaVersion: IndexSchemaVersion, Commits: commits}
	if commits == nil {
		idx.Commits = []IndexEntry{}
	}

	saveErr := s.SaveIndex(idx)
	if saveErr != nil {
		return skipped, saveErr
	}

	return skipped, nil
}

func snapshotSHAFromFilename(name string) (string, bool) {
	if sha, ok := strings.CutSuffix(name, ".json.zst"); ok {
		return sha, true
	}

	if sha, ok := strings.CutSuffix(name, ".json"); ok {
		return sha, true
	}

	return "", false
}
