// Package delta computes a parent-relative diff between two
// snapshot.Snapshot values: which functions are new, deleted, modified,
// or unchanged, their numeric deltas, and a second-pass rename-hint
// heuristic. Ported from
// original_source/hotspots-core/src/delta.rs.
package delta

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Stephen-Collins-tech/hotspots/pkg/snapshot"
)

// SchemaVersion is the schema version this package writes and requires
// on read.
const SchemaVersion = 1

// ErrSchemaVersionMismatch is returned by FromJSON and New when a
// snapshot or an encoded delta carries an unsupported schema version.
var ErrSchemaVersionMismatch = errors.New("delta: schema version mismatch")

// FunctionStatus classifies how a function changed between a snapshot
// and its parent.
type FunctionStatus string

const (
	StatusNew       FunctionStatus = "new"
	StatusDeleted   FunctionStatus = "deleted"
	StatusModified  FunctionStatus = "modified"
	StatusUnchanged FunctionStatus = "unchanged"
)

// FunctionState is a function's metrics/LRS/band at one side of a delta.
type FunctionState struct {
	Metrics MetricsView `json:"metrics"`
	LRS     float64     `json:"lrs"`
	Band    string      `json:"band"`
}

// MetricsView mirrors the subset of metrics.RawMetrics a delta entry
// serializes; kept local so pkg/delta has no dependency on pkg/metrics
// beyond the field shape it actually compares.
type MetricsView struct {
	CC  int `json:"cc"`
	ND  int `json:"nd"`
	FO  int `json:"fo"`
	NS  int `json:"ns"`
	LOC int `json:"loc"`
}

func metricsViewOf(f snapshot.FunctionSnapshot) MetricsView {
	return MetricsView{CC: f.Metrics.CC, ND: f.Metrics.ND, FO: f.Metrics.FO, NS: f.Metrics.NS, LOC: f.Metrics.LOC}
}

// FunctionDelta is the signed numeric change between two FunctionStates.
// Negative deltas are valid (reverts, simplifications).
type FunctionDelta struct {
	CC  int64   `json:"cc"`
	ND  int64   `json:"nd"`
	FO  int64   `json:"fo"`
	NS  int64   `json:"ns"`
	LRS float64 `json:"lrs"`
}

// BandTransition records a risk-band change across a delta.
type BandTransition struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FunctionDeltaEntry is one function's change record within a Delta.
type FunctionDeltaEntry struct {
	FunctionID        string          `json:"function_id"`
	Status            FunctionStatus  `json:"status"`
	Before            *FunctionState  `json:"before,omitempty"`
	After             *FunctionState  `json:"after,omitempty"`
	Delta             *FunctionDelta  `json:"delta,omitempty"`
	BandTransition    *BandTransition `json:"band_transition,omitempty"`
	// SuppressionReason carries the function's marker through unchanged:
	// nil means no marker, a pointer to "" means marker-without-reason.
	// pkg/policy's suppression-missing-reason rule depends on telling
	// these two apart.
	SuppressionReason *string         `json:"suppression_reason,omitempty"`
	// RenameHint is the likely new function_id for a Deleted entry,
	// set by the second-pass heuristic; never changes Status.
	RenameHint string `json:"rename_hint,omitempty"`
}

// CommitInfo is the minimal commit identity a delta embeds: the
// current SHA and the single parent SHA it was diffed against.
type CommitInfo struct {
	SHA    string `json:"sha"`
	Parent string `json:"parent"`
}

// Delta is the complete parent-relative diff between two snapshots.
// Policy and Aggregates are populated by pkg/policy and pkg/aggregate
// respectively at the orchestration layer: Delta itself stays free of
// those packages to avoid a cross-package import cycle (aggregate
// computes from a *Delta, so Delta cannot import aggregate back), the
// same constraint that split pkg/snapshot from pkg/activity.
type Delta struct {
	SchemaVersion int                  `json:"schema_version"`
	Commit        CommitInfo           `json:"commit"`
	Baseline      bool                 `json:"baseline"`
	Deltas        []FunctionDeltaEntry `json:"deltas"`
	Policy        any                  `json:"policy,omitempty"`
	Aggregates    any                  `json:"aggregates,omitempty"`
}

// New computes the delta between current and parent. A nil parent
// produces a baseline delta: every function in current is "new" and
// Baseline is true. Only current.Commit.Parents[0] is consulted;
// merge commits with additional parents are not diffed against them.
func New(current snapshot.Snapshot, parent *snapshot.Snapshot) (Delta, error) {
	if err := validateVersions(current, parent); err != nil {
		return Delta{}, err
	}

	var parentSHA string
	if len(current.Commit.Parents) > 0 {
		parentSHA = current.Commit.Parents[0]
	}

	if parent == nil {
		return buildBaseline(current, parentSHA), nil
	}

	parentByID := indexByID(parent.Functions)
	currentByID := indexByID(current.Functions)

	allIDs := make(map[string]struct{}, len(parentByID)+len(currentByID))
	for id := range parentByID {
		allIDs[id] = struct{}{}
	}

	for id := range currentByID {
		allIDs[id] = struct{}{}
	}

	ids := make([]string, 0, len(allIDs))
	for id := range allIDs {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	entries := computeFunctionDeltas(ids, parentByID, currentByID)
	applyRenameHints(entries, parentByID, currentByID)

	return Delta{
		SchemaVersion: SchemaVersion,
		Commit:        CommitInfo{SHA: current.Commit.SHA, Parent: parentSHA},
		Baseline:      false,
		Deltas:        entries,
	}, nil
}

func validateVersions(current snapshot.Snapshot, parent *snapshot.Snapshot) error {
	if current.SchemaVersion != snapshot.SchemaVersionCurrent {
		return fmt.Errorf("%w: current snapshot has %d, want %d",
			ErrSchemaVersionMismatch, current.SchemaVersion, snapshot.SchemaVersionCurrent)
	}

	if parent != nil && parent.SchemaVersion != snapshot.SchemaVersionCurrent {
		return fmt.Errorf("%w: parent snapshot has %d, want %d",
			ErrSchemaVersionMismatch, parent.SchemaVersion, snapshot.SchemaVersionCurrent)
	}

	return nil
}

func indexByID(functions []snapshot.FunctionSnapshot) map[string]snapshot.FunctionSnapshot {
	m := make(map[string]snapshot.FunctionSnapshot, len(functions))
	for _, f := range functions {
		m[f.FunctionID] = f
	}

	return m
}

func buildBaseline(current snapshot.Snapshot, parentSHA string) Delta {
	entries := make([]FunctionDeltaEntry, 0, len(current.Functions))

	for _, f := range current.Functions {
		entries = append(entries, FunctionDeltaEntry{
			FunctionID:        f.FunctionID,
			Status:            StatusNew,
			After:             &FunctionState{Metrics: metricsViewOf(f), LRS: f.LRS, Band: f.Band},
			SuppressionReason: f.SuppressionReason,
		})
	}

	return Delta{
		SchemaVersion: SchemaVersion,
		Commit:        CommitInfo{SHA: current.Commit.SHA, Parent: parentSHA},
		Baseline:      true,
		Deltas:        entries,
	}
}

func computeFunctionDeltas(
	ids []string,
	parentByID, currentByID map[string]snapshot.FunctionSnapshot,
) []FunctionDeltaEntry {
	entries := make([]FunctionDeltaEntry, 0, len(ids))

	for _, id := range ids {
		p, inParent := parentByID[id]
		c, inCurrent := currentByID[id]

		switch {
		case inParent && inCurrent:
			entries = append(entries, modifiedOrUnchangedEntry(id, p, c))
		case inParent && !inCurrent:
			entries = append(entries, deletedEntry(id, p))
		default:
			entries = append(entries, newEntry(id, c))
		}
	}

	return entries
}

func modifiedOrUnchangedEntry(id string, p, c snapshot.FunctionSnapshot) FunctionDeltaEntry {
	status := StatusUnchanged

	var numericDelta *FunctionDelta

	if functionsDiffer(p, c) {
		status = StatusModified
		d := computeFunctionDelta(p, c)
		numericDelta = &d
	}

	var transition *BandTransition
	if p.Band != c.Band {
		transition = &BandTransition{From: p.Band, To: c.Band}
	}

	return FunctionDeltaEntry{
		FunctionID:        id,
		Status:            status,
		Before:            &FunctionState{Metrics: metricsViewOf(p), LRS: p.LRS, Band: p.Band},
		After:             &FunctionState{Metrics: metricsViewOf(c), LRS: c.LRS, Band: c.Band},
		Delta:             numericDelta,
		BandTransition:    transition,
		SuppressionReason: c.SuppressionReason,
	}
}

func deletedEntry(id string, p snapshot.FunctionSnapshot) FunctionDeltaEntry {
	d := computeDeleteDelta(p)

	return FunctionDeltaEntry{
		FunctionID:        id,
		Status:            StatusDeleted,
		Before:            &FunctionState{Metrics: metricsViewOf(p), LRS: p.LRS, Band: p.Band},
		Delta:             &d,
		SuppressionReason: p.SuppressionReason,
	}
}

func newEntry(id string, c snapshot.FunctionSnapshot) FunctionDeltaEntry {
	return FunctionDeltaEntry{
		FunctionID:        id,
		Status:            StatusNew,
		After:             &FunctionState{Metrics: metricsViewOf(c), LRS: c.LRS, Band: c.Band},
		SuppressionReason: c.SuppressionReason,
	}
}

// functionsDiffer ignores file/line movement: only metrics, LRS, and
// band changes make a function "modified".
func functionsDiffer(p, c snapshot.FunctionSnapshot) bool {
	return p.Metrics != c.Metrics || math.Abs(p.LRS-c.LRS) > epsilon || p.Band != c.Band
}

const epsilon = 1e-12

func computeFunctionDelta(p, c snapshot.FunctionSnapshot) FunctionDelta {
	return FunctionDelta{
		CC:  int64(c.Metrics.CC) - int64(p.Metrics.CC),
		ND:  int64(c.Metrics.ND) - int64(p.Metrics.ND),
		FO:  int64(c.Metrics.FO) - int64(p.Metrics.FO),
		NS:  int64(c.Metrics.NS) - int64(p.Metrics.NS),
		LRS: c.LRS - p.LRS,
	}
}

func computeDeleteDelta(p snapshot.FunctionSnapshot) FunctionDelta {
	return FunctionDelta{
		CC:  -int64(p.Metrics.CC),
		ND:  -int64(p.Metrics.ND),
		FO:  -int64(p.Metrics.FO),
		NS:  -int64(p.Metrics.NS),
		LRS: -p.LRS,
	}
}

// ToJSON serializes the delta as deterministic pretty JSON.
func (d *Delta) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal delta: %w", err)
	}

	return data, nil
}

// FromJSON deserializes a Delta, rejecting any schema_version other
// than SchemaVersion.
func FromJSON(data []byte) (Delta, error) {
	var d Delta

	if err := json.Unmarshal(data, &d); err != nil {
		return Delta{}, fmt.Errorf("unmarshal delta: %w", err)
	}

	if d.SchemaVersion != SchemaVersion {
		return Delta{}, fmt.Errorf("%w: got %d, want %d", ErrSchemaVersionMismatch, d.SchemaVersion, SchemaVersion)
	}

	return d, nil
}
