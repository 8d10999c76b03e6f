package landscape

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gruppe-adler/landscape-utils/internal/logging"
	"github.com/gruppe-adler/landscape-utils/internal/progress"
	"github.com/gruppe-adler/landscape-utils/internal/settings"
	"github.com/gruppe-adler/landscape-utils/internal/utils"
	"github.com/gruppe-adler/landscape-utils/internal/validate"
)

type flags struct {
	config   *string
	cacheDir *string
	logLevel *string
}

func defineFlags(flagSet *flag.FlagSet) flags {
	return flags{
		config:   flagSet.String("config", "", "Path to settings YAML file (defaults if empty)"),
		cacheDir: flagSet.String("cache", "", "Elevation tile cache directory (overrides settings)"),
		logLevel: flagSet.String("log-level", "", "debug, info, warn or error (overrides settings)"),
	}
}

// session is the shared setup of the build and fetch subcommands
type session struct {
	settings *settings.Settings
	logger   *slog.Logger
	tracker  *progress.Tracker
	deps     Deps
	closers  []io.Closer
	stop     context.CancelFunc
}

func newSession(f flags) *session {
	var timer time.Time

	timer = time.Now()
	fmt.Println("▶️  Loading settings")

	s := settings.Default()
	if *f.config != "" {
		loaded, err := settings.Load(*f.config)
		if err != nil {
			log.Fatal(err)
		}
		s = *loaded
	}
	if *f.cacheDir != "" {
		s.Cache.Directory = *f.cacheDir
	}
	if *f.logLevel != "" {
		s.Log.Level = *f.logLevel
	}

	if err := validate.Settings(&s); err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  Loaded settings in", time.Since(timer).String())

	logger, logCloser := logging.New(logging.Options{Name: "landscape-utils", Directory: s.Log.Directory, Level: s.Log.Level})
	slog.SetDefault(logger)

	deps, cacheCloser := NewDeps(&s, logger)
	tracker := progress.NewTracker(os.Stdout, logger, time.Second)

	// the first interrupt asks the running phase to stop, a second one kills the process
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	done := make(chan struct{})
	go func() {
		select {
		case <-interrupts:
			fmt.Println("\n⚠️  Cancelling, press Ctrl+C again to quit immediately")
			tracker.RequestCancel()
			signal.Stop(interrupts)
		case <-done:
		}
	}()

	return &session{
		settings: &s,
		logger:   logger,
		tracker:  tracker,
		deps:     deps,
		closers:  []io.Closer{cacheCloser, logCloser},
		stop:     func() { close(done); signal.Stop(interrupts) },
	}
}

func (s *session) close() {
	s.stop()
	for _, c := range s.closers {
		c.Close()
	}
}

// fail prints the error of a job and exits
func (s *session) fail(err error) {
	s.logger.Error("job failed", "error", err)
	s.close()

	if errors.Is(err, progress.ErrUserCancelled) {
		fmt.Println("\n    🛑  Cancelled by user")
	} else {
		fmt.Printf("\n    ❌  %v\n", err)
	}
	os.Exit(1)
}

// Run is the entrypoint of the build subcommand
func Run(flagSet *flag.FlagSet, args []string) {

	var timer time.Time
	start := time.Now()

	f := defineFlags(flagSet)
	outputPtr := flagSet.String("out", "", "Path to output directory")

	flagSet.Parse(args)

	if *outputPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	if err := utils.EnsureDirectory(*outputPtr); err != nil {
		log.Fatal(err)
	}

	sess := newSession(f)

	timer = time.Now()
	fmt.Println("▶️  Building landscape")
	result, err := Build(context.Background(), sess.settings, sess.deps, sess.tracker)
	if err != nil {
		sess.fail(err)
	}
	fmt.Println("✔️  Built landscape in", time.Since(timer).String())

	fmt.Printf("ℹ️  %dx%d vertices, elevation %.2fm to %.2fm, lighting LOD %d\n",
		result.Geometry.Size(), result.Geometry.Size(), result.ElevationMin, result.ElevationMax, result.LightingLOD)

	timer = time.Now()
	fmt.Println("▶️  Writing outputs")
	if err := Write(*outputPtr, result); err != nil {
		sess.fail(err)
	}
	fmt.Println("✔️  Wrote outputs in", time.Since(timer).String())

	sess.close()
	fmt.Printf("\n    🎉  Finished in %s\n", time.Since(start).String())
}

// RunFetch is the entrypoint of the fetch subcommand, it fills the tile
// cache without building anything.
func RunFetch(flagSet *flag.FlagSet, args []string) {

	start := time.Now()

	f := defineFlags(flagSet)
	flagSet.Parse(args)

	sess := newSession(f)
	if sess.settings.Cache.Disabled {
		log.Fatal(errors.New("Fetching with a disabled cache has no effect"))
	}

	fmt.Println("▶️  Downloading elevation tiles")
	job, tiles, err := Fetch(context.Background(), sess.settings, sess.deps, sess.tracker)
	if err != nil {
		sess.fail(err)
	}

	min, max := tiles.Range()
	fmt.Printf("ℹ️  %d tiles on level %d, elevation %.2fm to %.2fm\n", tiles.Len(), job.Level, min, max)

	sess.close()
	fmt.Printf("\n    🎉  Finished in %s\n", time.Since(start).String())
}
