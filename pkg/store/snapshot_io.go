package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/Stephen-Collins-tech/hotspots/pkg/snapshot"
)

// PersistSnapshot writes snap under its commit SHA. If no file exists
// for that SHA, it is written atomically. If one already exists, both
// are canonicalized (one parse-serialize round trip) and compared:
// equal content is a no-op, unequal content fails with ErrSnapshotExists
// unless force is true.
func (s *Store) PersistSnapshot(snap snapshot.Snapshot, force bool) error {
	sha := snap.Commit.SHA
	if sha == "" {
		return errors.New("store: snapshot has empty commit sha")
	}

	canonical, marshalErr := snap.ToJSON()
	if marshalErr != nil {
		return fmt.Errorf("store: canonicalize snapshot %s: %w", sha, marshalErr)
	}

	existing, loadErr := s.LoadSnapshot(sha)

	switch {
	case loadErr == nil:
		existingCanonical, reErr := existing.ToJSON()
		if reErr != nil {
			return fmt.Errorf("store: canonicalize existing snapshot %s: %w", sha, reErr)
		}

		if bytes.Equal(canonical, existingCanonical) {
			return nil
		}

		if !force {
			return fmt.Errorf("%w: %s", ErrSnapshotExists, sha)
		}
	case errors.Is(loadErr, os.ErrNotExist):
		// Fresh write, fall through.
	default:
		return loadErr
	}

	compressed, compressErr := compressZstd(canonical)
	if compressErr != nil {
		return fmt.Errorf("store: compress snapshot %s: %w", sha, compressErr)
	}

	path := s.snapshotPath(sha)

	writeErr := atomicWriteFile(path, compressed)
	if writeErr != nil {
		return writeErr
	}

	return s.AppendToIndex(snap)
}

// LoadSnapshot reads and validates the snapshot stored for sha,
// preferring the compressed `.json.zst` path and falling back to the
// legacy uncompressed `.json` path. Returns an error satisfying
// errors.Is(err, os.ErrNotExist) when neither exists.
func (s *Store) LoadSnapshot(sha string) (snapshot.Snapshot, error) {
	path := s.snapshotPath(sha)

	tornErr := checkTornWrite(path)
	if tornErr != nil {
		return snapshot.Snapshot{}, tornErr
	}

	compressed, readErr := os.ReadFile(path)
	if readErr != nil {
		if !os.IsNotExist(readErr) {
			return snapshot.Snapshot{}, fmt.Errorf("store: read %s: %w", path, readErr)
		}

		return s.loadLegacySnapshot(sha)
	}

	raw, decompressErr := decompressZstd(compressed)
	if decompressErr != nil {
		return snapshot.Snapshot{}, fmt.Errorf("store: decompress %s: %w", path, decompressErr)
	}

	snap, parseErr := snapshot.FromJSON(raw)
	if parseErr != nil {
		return snapshot.Snapshot{}, fmt.Errorf("store: parse %s: %w", path, parseErr)
	}

	return snap, nil
}

func (s *Store) loadLegacySnapshot(sha string) (snapshot.Snapshot, error) {
	legacyPath := s.legacySnapshotPath(sha)

	tornErr := checkTornWrite(legacyPath)
	if tornErr != nil {
		return snapshot.Snapshot{}, tornErr
	}

	raw, readErr := os.ReadFile(legacyPath)
	if readErr != nil {
		return snapshot.Snapshot{}, readErr //nolint:wrapcheck // preserves os.ErrNotExist for callers
	}

	snap, parseErr := snapshot.FromJSON(raw)
	if parseErr != nil {
		return snapshot.Snapshot{}, fmt.Errorf("store: parse %s: %w", legacyPath, parseErr)
	}

	return snap, nil
}

// compressZstd compresses data single-threaded at level 3, matching
// the deterministic-output requirement: one worker, no frame-level
// concurrency jitter.
func compressZstd(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	defer enc.Close()

	return enc.EncodeAll(data, nil), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	out, decodeErr := dec.DecodeAll(data, nil)
	if decodeErr != nil {
		return nil, fmt.Errorf("zstd decode: %w", decodeErr)
	}

	return out, nil
}
