// Package pipeline orchestrates the per-file worker pool that wires
// every analysis component (tree-sitter parse, CFG build, metrics
// extraction, risk scoring, git history, call graph, activity-risk
// enrichment, persistence, delta, policy, and aggregates) into one
// repository run. No single component above imports another across
// this boundary; pipeline is the only package that imports all of
// them, which is also where the fields pkg/delta and pkg/aggregate
// cannot cross-import directly (Delta.Policy, Delta.Aggregates) get
// populated concretely.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Stephen-Collins-tech/hotspots/internal/config"
	"github.com/Stephen-Collins-tech/hotspots/internal/observability"
	"github.com/Stephen-Collins-tech/hotspots/pkg/activity"
	"github.com/Stephen-Collins-tech/hotspots/pkg/aggregate"
	"github.com/Stephen-Collins-tech/hotspots/pkg/cfg"
	"github.com/Stephen-Collins-tech/hotspots/pkg/delta"
	"github.com/Stephen-Collins-tech/hotspots/pkg/gitlib"
	"github.com/Stephen-Collins-tech/hotspots/pkg/gitrepo"
	"github.com/Stephen-Collins-tech/hotspots/pkg/ir"
	"github.com/Stephen-Collins-tech/hotspots/pkg/lang"
	"github.com/Stephen-Collins-tech/hotspots/pkg/metrics"
	"github.com/Stephen-Collins-tech/hotspots/pkg/policy"
	"github.com/Stephen-Collins-tech/hotspots/pkg/risk"
	"github.com/Stephen-Collins-tech/hotspots/pkg/snapshot"
	"github.com/Stephen-Collins-tech/hotspots/pkg/store"
)

// ToolVersion is stamped onto every snapshot this package builds.
const ToolVersion = "hotspots-pipeline/1"

// Options configures one Run invocation.
type Options struct {
	// RepoRoot is the repository's working directory, also used to open
	// the git repository.
	RepoRoot string
	// Config is the resolved include/exclude/threshold configuration.
	Config *config.Resolved
	// Workers caps the file-worker pool; <=0 means runtime.NumCPU().
	Workers int
	// Force persists over a differing existing snapshot for the same
	// commit instead of returning store.ErrSnapshotExists.
	Force bool
	// Metrics, when non-nil, records pipeline instrumentation.
	Metrics *observability.PipelineMetrics
}

// Result is everything one Run produces: the snapshot, its persisted
// location, and — when a parent commit exists — the delta against it
// with policy and aggregate results already populated.
type Result struct {
	Snapshot    snapshot.Snapshot
	Aggregates  aggregate.SnapshotAggregates
	Delta       *delta.Delta
	PolicyResults *policy.Results
}

// Run discovers every supported file under opts.RepoRoot, analyzes it
// through a worker pool, assembles and persists the commit's snapshot,
// and — when the commit has a recorded parent snapshot — computes the
// delta, evaluates policy, and computes delta aggregates against it.
func Run(ctx context.Context, opts Options) (Result, error) {
	start := time.Now()

	if opts.Metrics != nil {
		defer func() {
			opts.Metrics.PipelineSeconds.Observe(time.Since(start).Seconds())
		}()
	}

	repo, err := gitlib.OpenRepository(opts.RepoRoot)
	if err != nil {
		return Result{}, fmt.Errorf("open repository: %w", err)
	}
	defer repo.Free()

	gitCtx, err := gitrepo.HeadContext(repo)
	if err != nil {
		return Result{}, fmt.Errorf("resolve HEAD context: %w", err)
	}

	files, err := discoverFiles(opts.RepoRoot, opts.Config)
	if err != nil {
		return Result{}, fmt.Errorf("discover files: %w", err)
	}

	reports, functions, err := analyzeFilesParallel(ctx, opts, files)
	if err != nil {
		return Result{}, fmt.Errorf("analyze files: %w", err)
	}

	snap := snapshot.New(gitCtx, ToolVersion, reports)

	churn, err := gitrepo.ComputeChurn(ctx, repo, nil)
	if err != nil {
		return Result{}, fmt.Errorf("compute churn: %w", err)
	}

	touchCache, err := loadTouchCache(opts.RepoRoot)
	if err != nil {
		return Result{}, fmt.Errorf("load touch cache: %w", err)
	}

	headHash, err := repo.Head()
	if err != nil {
		return Result{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	if err := enrichHistory(repo, headHash, &snap, churn, touchCache); err != nil {
		return Result{}, fmt.Errorf("enrich history signals: %w", err)
	}

	if err := saveTouchCache(opts.RepoRoot, touchCache); err != nil {
		slog.Warn("save touch cache failed", "error", err)
	}

	callGraph := enrichCallGraph(functions, &snap)
	enrichPatterns(callGraph, &snap)

	weights := activityWeightsFrom(opts.Config)
	activity.EnrichActivityRisk(&snap, &weights)
	activity.ComputePercentiles(&snap)

	driverPercentile := 90
	if opts.Config != nil && opts.Config.DriverPercentile > 0 {
		driverPercentile = int(opts.Config.DriverPercentile)
	}

	activity.PopulateDriverLabels(&snap, driverPercentile)
	activity.ComputeQuadrants(&snap, driverPercentile)

	snap.ComputeSummary()

	var coChangePairs []gitrepo.CoChangePair

	if opts.Config != nil && opts.Config.CoChange.WindowDays > 0 && opts.Config.CoChange.Minimum > 0 {
		coChangePairs, err = gitrepo.ExtractCoChangePairs(repo, opts.Config.CoChange.WindowDays, opts.Config.CoChange.Minimum)
		if err != nil {
			return Result{}, fmt.Errorf("extract co-change pairs: %w", err)
		}
	}

	snapshotAggregates := aggregate.ComputeSnapshotAggregates(snap, coChangePairs)

	st := store.Open(filepath.Join(opts.RepoRoot, ".hotspots"))

	if err := st.PersistSnapshot(snap, opts.Force); err != nil {
		return Result{}, fmt.Errorf("persist snapshot: %w", err)
	}

	if err := st.AppendToIndex(snap); err != nil {
		return Result{}, fmt.Errorf("append to index: %w", err)
	}

	if opts.Metrics != nil {
		if data, err := snap.ToJSON(); err == nil {
			opts.Metrics.SnapshotBytes.Set(float64(len(data)))
		}
	}

	result := Result{Snapshot: snap, Aggregates: snapshotAggregates}

	parentSHA := ""
	if len(gitCtx.ParentSHAs) > 0 {
		parentSHA = gitCtx.ParentSHAs[0]
	}

	if parentSHA == "" {
		return result, nil
	}

	parentSnap, err := st.LoadSnapshot(parentSHA)
	if err != nil {
		return result, nil
	}

	d, err := delta.New(snap, &parentSnap)
	if err != nil {
		return result, fmt.Errorf("compute delta: %w", err)
	}

	warningThresholds := config.WarningThresholds{
		WatchMin: 3.0, WatchMax: 6.0, AttentionMin: 6.0, AttentionMax: 9.0, RapidGrowthPercent: 50.0,
	}
	if opts.Config != nil {
		warningThresholds = opts.Config.WarningThresholds
	}

	policyResults := policy.Evaluate(d, snap, &parentSnap, warningThresholds)
	deltaAggregates := aggregate.ComputeDeltaAggregates(d)

	d.Policy = policyResults
	d.Aggregates = deltaAggregates

	result.Delta = &d
	result.PolicyResults = policyResults

	return result, nil
}

// discoverFiles walks the repository tree and returns every file a
// registered language frontend supports, respecting the resolved
// include/exclude globs. Grounded on
// internal/analyzers/analyze/static.go's collectFiles, swapping the
// teacher's uast.Parser.IsSupported/ShouldSkipFolderNode for
// lang.Registry.Supported since this module has no UAST parser.
func discoverFiles(root string, cfgResolved *config.Resolved) ([]string, error) {
	registry := lang.NewRegistry()

	var files []string

	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if entry.IsDir() {
			if entry.Name() == ".git" || entry.Name() == ".hotspots" {
				return filepath.SkipDir
			}

			return nil
		}

		if !registry.Supported(path) {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		rel = filepath.ToSlash(rel)

		if cfgResolved != nil && !cfgResolved.ShouldInclude(rel) {
			return nil
		}

		files = append(files, rel)

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)

	return files, nil
}

// fileResult is one worker's output for a single file: the function
// reports ready for snapshot.New plus the raw ir.Functions needed
// afterward to build call-graph edges.
type fileResult struct {
	reports   []snapshot.FunctionReport
	functions []*ir.Function
}

// workerState holds shared mutable state across file workers, mirroring
// internal/analyzers/analyze/static.go's workerState: first-error-wins
// plus a mutex-guarded accumulation of each worker's results.
type workerState struct {
	mu       sync.Mutex
	firstErr error
	results  []fileResult
}

func (ws *workerState) setError(err error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.firstErr == nil {
		ws.firstErr = err
	}
}

func (ws *workerState) addResult(r fileResult) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	ws.results = append(ws.results, r)
}

// analyzeFilesParallel runs parse -> CFG -> metrics -> risk for every
// file across a pool of workers, each owning its own lang.Registry
// instance — the same per-worker-own-parser shape
// internal/analyzers/analyze/static.go uses to avoid sharing mutable
// parser state across goroutines.
func analyzeFilesParallel(ctx context.Context, opts Options, files []string) ([]snapshot.FunctionReport, []*ir.Function, error) {
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = max(1, runtime.NumCPU())
	}

	fileChan := make(chan string, numWorkers)
	state := &workerState{}

	var wg sync.WaitGroup

	wg.Add(numWorkers)

	for range numWorkers {
		go fileWorker(ctx, opts, &wg, fileChan, state)
	}

	for _, f := range files {
		fileChan <- f
	}

	close(fileChan)
	wg.Wait()

	if state.firstErr != nil {
		return nil, nil, state.firstErr
	}

	var reports []snapshot.FunctionReport

	var functions []*ir.Function

	for _, r := range state.results {
		reports = append(reports, r.reports...)
		functions = append(functions, r.functions...)
	}

	return reports, functions, nil
}

func fileWorker(ctx context.Context, opts Options, wg *sync.WaitGroup, fileChan <-chan string, state *workerState) {
	defer wg.Done()

	registry := lang.NewRegistry()

	for relFile := range fileChan {
		result, err := processFile(ctx, opts, registry, relFile)
		if err != nil {
			if opts.Metrics != nil {
				opts.Metrics.ParseErrors.Inc()
			}

			if _, isParseErr := err.(*lang.ParseError); isParseErr {
				slog.Warn("skipping file that failed to parse", "file", relFile, "error", err)

				continue
			}

			state.setError(err)

			for range fileChan {
				continue // Drain remaining items so senders don't block.
			}

			return
		}

		if opts.Metrics != nil {
			opts.Metrics.FilesParsed.Inc()
		}

		state.addResult(result)
	}
}

func processFile(ctx context.Context, opts Options, registry *lang.Registry, relFile string) (fileResult, error) {
	frontend, ok := registry.Lookup(relFile)
	if !ok {
		return fileResult{}, nil
	}

	source, err := os.ReadFile(filepath.Join(opts.RepoRoot, relFile))
	if err != nil {
		return fileResult{}, fmt.Errorf("read %s: %w", relFile, err)
	}

	funcs, err := frontend.Parse(ctx, relFile, source)
	if err != nil {
		return fileResult{}, err
	}

	result := fileResult{functions: funcs}

	for _, fn := range funcs {
		g := cfg.Build(fn.Body)
		raw := metrics.Extract(fn, g)

		var weights *config.Weights

		var thresholds *config.Thresholds

		if opts.Config != nil {
			weights = &opts.Config.Weights
			thresholds = &opts.Config.Thresholds
		}

		riskResult := risk.Analyze(raw, weights, thresholds)

		if opts.Config != nil && riskResult.LRS < opts.Config.MinLRS {
			continue
		}

		result.reports = append(result.reports, snapshot.FunctionReport{
			FunctionID:        fn.ID,
			File:              fn.File,
			Line:              fn.StartLine,
			Language:          fn.Language,
			Metrics:           raw,
			Risk:              riskResult,
			SuppressionReason: fn.SuppressionReason,
		})
	}

	return result, nil
}

// activityWeightsFrom builds activity.Weights from config. config.Weights/
// config.Thresholds (threaded into risk.Analyze above) tune the LRS
// score; the broader activity-risk signal weights (churn, fan-in, cyclic
// dependency, and so on) have no matching config surface yet, so
// activity.Weights is always left at its defaults.
func activityWeightsFrom(_ *config.Resolved) activity.Weights {
	return activity.DefaultWeights()
}
