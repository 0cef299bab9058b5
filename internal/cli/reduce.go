package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"ddreduce/internal/dd"
	"ddreduce/internal/fs"
)

// ReduceCmd builds the "reduce" command, the driver's only real
// operation: load an input, atomize it, run the reduction engine
// against an external tester command, and write the minimized result.
func ReduceCmd(cfg Config, realFS fs.FS) *Command {
	flags := flag.NewFlagSet("reduce", flag.ContinueOnError)

	input := flags.StringP("input", "i", "", "input test case to reduce (required)")
	out := flags.StringP("out", "o", "", "output directory for the reduced test case and scratch work dirs (required)")
	testCmd := flags.String("test", "", "tester command pattern; %s is replaced with the candidate's path (required)")
	atom := flags.StringP("atom", "a", cfg.Atom, "atom granularity: char, line, or both")
	cache := flags.String("cache", cfg.Cache, "outcome cache strategy: none, config, content, content-hash")
	split := flags.String("split", cfg.Split, "splitter strategy: zeller, balanced")
	granularity := flags.Int("granularity", cfg.Granularity, "initial split factor (use 0 for infinite, i.e. singletons)")
	subsetIterator := flags.String("subset-iterator", cfg.SubsetIterator, "subset iterator: forward, backward, skip, random")
	complementIterator := flags.String("complement-iterator", cfg.ComplementIterator, "complement iterator: forward, backward, skip, random")
	complementFirst := flags.Bool("complement-first", cfg.ComplementFirst, "test complements before subsets in each run")
	parallel := flags.BoolP("parallel", "p", cfg.Parallel, "use the parallel engine")
	jobs := flags.IntP("jobs", "j", cfg.Jobs, "worker pool size for the parallel engine")
	maxUtilization := flags.Float64("max-utilization", cfg.MaxUtilization, "throttle dispatch above this CPU utilization percent (0 disables)")
	cacheFail := flags.Bool("cache-fail", cfg.CacheFail, "also cache FAIL outcomes")
	noCacheEvictAfterFail := flags.Bool("no-cache-evict-after-fail", !cfg.CacheEvictAfterFail, "disable evicting longer cache entries after a FAIL is recorded")
	noDDStar := flags.Bool("no-dd-star", !cfg.DDStar, "disable the dd-star fixed-point extension")
	limitTime := flags.Duration("limit-time", 0, "stop reduction after this duration (no limit unless given; 0 stops before the first test)")
	limitTests := flags.Int("limit-tests", 0, "stop reduction after this many tests (no limit unless given; 0 stops before the first test)")
	noCleanup := flags.Bool("no-cleanup", !cfg.Cleanup, "keep per-test scratch directories instead of removing them")
	interactiveAssert := flags.Bool("interactive-assert", false, "prompt before raising on a failed debug assert check")
	verbose := flags.Bool("verbose", false, "enable debug logging")

	return &Command{
		Flags: flags,
		Usage: "reduce -i <input> -o <out> --test <command...>",
		Short: "Reduce a failing test case to a locally-minimal one.",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			if *input == "" || *out == "" || *testCmd == "" {
				return fmt.Errorf("--input, --out, and --test are required")
			}

			level := slog.LevelInfo
			if *verbose {
				level = slog.LevelDebug
			}

			logger := slog.New(slog.NewTextHandler(stderrWriter{io}, &slog.HandlerOptions{Level: level}))

			opts := reduceOptions{
				input:                 *input,
				out:                   *out,
				testCommand:           strings.Fields(*testCmd),
				atom:                  *atom,
				cache:                 *cache,
				split:                 *split,
				granularity:           *granularity,
				subsetIterator:        *subsetIterator,
				complementIterator:    *complementIterator,
				complementFirst:       *complementFirst,
				parallel:              *parallel,
				jobs:                  *jobs,
				maxUtilization:        *maxUtilization,
				cacheFail:             *cacheFail,
				cacheEvictAfterFail:   !*noCacheEvictAfterFail,
				ddStar:                !*noDDStar,
				limitTime:             *limitTime,
				limitTimeSet:          flags.Changed("limit-time"),
				limitTests:            *limitTests,
				limitTestsSet:         flags.Changed("limit-tests"),
				cleanup:               !*noCleanup,
				interactiveAssert:     *interactiveAssert,
				logger:                logger,
			}

			result, runErr := runReduce(ctx, realFS, io, opts)

			writeErr := writeOutput(realFS, opts.out, filepath.Base(opts.input), result)
			if writeErr != nil {
				io.ErrPrintln("error writing output:", writeErr)
			}

			if runErr != nil {
				if stopped, ok := runErr.(*dd.ReductionStopped); ok {
					io.WarnLLM("reduction stopped early: "+stopped.Error(), "inspect the partial result; it may not be minimal")
					return nil
				}

				return runErr
			}

			io.Println("reduced test case written to", filepath.Join(opts.out, filepath.Base(opts.input)))

			return nil
		},
	}
}

type reduceOptions struct {
	input, out          string
	testCommand         []string
	atom                string
	cache, split        string
	granularity         int
	subsetIterator      string
	complementIterator  string
	complementFirst     bool
	parallel            bool
	jobs                int
	maxUtilization      float64
	cacheFail           bool
	cacheEvictAfterFail bool
	ddStar              bool
	limitTime           time.Duration
	limitTimeSet        bool
	limitTests          int
	limitTestsSet       bool
	cleanup             bool
	interactiveAssert   bool
	logger              *slog.Logger
}

// runReduce atomizes the input and runs the reduction engine once per
// atom phase (picire's atom='both' runs lines first, then chars on
// whatever the line pass left), returning the final reduced artifact.
func runReduce(ctx context.Context, realFS fs.FS, io *IO, opts reduceOptions) (string, error) {
	raw, err := realFS.ReadFile(opts.input)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}

	phases := []string{opts.atom}
	if opts.atom == "both" {
		phases = []string{"line", "char"}
	}

	src := string(raw)

	for phaseIdx, phaseName := range phases {
		atoms := atomize(src, phaseName)

		splitter, err := dd.SplitterRegistry[opts.split](opts.granularity)
		if err != nil {
			return src, err
		}

		iterator := dd.NewCombinedIterator(
			!opts.complementFirst,
			dd.IteratorRegistry[opts.subsetIterator],
			dd.IteratorRegistry[opts.complementIterator],
		)

		cacheCtor, ok := dd.CacheRegistry[opts.cache]
		if !ok {
			return src, fmt.Errorf("unknown cache strategy %q", opts.cache)
		}

		cache := cacheCtor(dd.CacheOptions{CacheFail: opts.cacheFail, EvictAfterFail: opts.cacheEvictAfterFail})
		if opts.parallel {
			cache = dd.NewSharedCache(cache)
		}

		builder := dd.NewConcatTestBuilder(atoms)

		workDir := filepath.Join(opts.out, "tests")

		tester := dd.Tester(dd.NewSubprocessTester(dd.SubprocessTesterOptions{
			FS:             realFS,
			Builder:        builder,
			CommandPattern: opts.testCommand,
			WorkDir:        workDir,
			Filename:       filepath.Base(opts.input),
			Cleanup:        opts.cleanup,
		}))

		tester = prefixedTester{phase: fmt.Sprintf("a%d", phaseIdx), inner: tester}

		if opts.interactiveAssert {
			tester = interactiveAssertTester{inner: tester, io: io}
		}

		var stop dd.Limiter
		if opts.limitTimeSet || opts.limitTestsSet {
			limitTime := time.Duration(-1)
			if opts.limitTimeSet {
				limitTime = opts.limitTime
			}

			limitTests := -1
			if opts.limitTestsSet {
				limitTests = opts.limitTests
			}

			stop = dd.NewLimitReduction(limitTime, limitTests)
		}

		base := dd.Options{
			Tester:   tester,
			Builder:  builder,
			Cache:    cache,
			Splitter: splitter,
			Iterator: iterator,
			DDStar:   opts.ddStar,
			Stop:     stop,
			Logger:   opts.logger,
		}

		initial := make(dd.Config, len(atoms))
		for i := range atoms {
			initial[i] = i
		}

		var (
			minimal dd.Config
			runErr  error
		)

		if opts.parallel {
			engine := dd.NewParallel(dd.ParallelOptions{Options: base, ProcNum: opts.jobs, MaxUtilization: opts.maxUtilization})
			minimal, runErr = engine.Reduce(ctx, initial)
		} else {
			engine := dd.NewSequential(base)
			minimal, runErr = engine.Reduce(ctx, initial)
		}

		src = builder.Build(minimal)

		if runErr != nil {
			return src, runErr
		}
	}

	return src, nil
}

// atomize splits src into the atoms named by kind.
func atomize(src, kind string) []string {
	if kind == "char" {
		out := make([]string, 0, len(src))
		for _, r := range src {
			out = append(out, string(r))
		}

		return out
	}

	var lines []string

	scanner := bufio.NewScanner(strings.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		lines = append(lines, scanner.Text()+"\n")
	}

	return lines
}

// writeOutput atomically writes content to <out>/<name>, creating out
// if needed. The output path is flock-guarded so two concurrent
// ddreduce invocations targeting the same --out never interleave
// their writes.
func writeOutput(realFS fs.FS, out, name, content string) error {
	if err := realFS.MkdirAll(out, 0o755); err != nil {
		return err
	}

	path := filepath.Join(out, name)

	lock, err := fs.NewLocker(realFS).LockWithTimeout(path+".lock", 5*time.Second)
	if err != nil {
		return fmt.Errorf("locking output: %w", err)
	}
	defer lock.Close()

	return realFS.WriteFileAtomic(path, []byte(content), 0o644)
}

// prefixedTester prepends an atom-phase tag to every ConfigID, so logs
// and scratch directory names disambiguate the line pass from the char
// pass of an --atom=both run.
type prefixedTester struct {
	phase string
	inner dd.Tester
}

func (t prefixedTester) Test(ctx context.Context, config dd.Config, id dd.ConfigID) (dd.Outcome, error) {
	prefixed := make(dd.ConfigID, 0, len(id)+1)
	prefixed = append(prefixed, t.phase)
	prefixed = append(prefixed, id...)

	return t.inner.Test(ctx, config, prefixed)
}

// stderrWriter adapts an *IO's stderr stream to io.Writer for slog.
type stderrWriter struct {
	io *IO
}

func (w stderrWriter) Write(p []byte) (int, error) {
	w.io.ErrPrintln(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
