//go:build linux

package daemon

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/ubports/upstart/internal/control"
	"github.com/ubports/upstart/internal/engine"
	"github.com/ubports/upstart/internal/job"
	"github.com/ubports/upstart/internal/journal"
)

// Daemon is the main daemon process coordinator: it owns the bound
// control socket, the engine's single main loop and the supporting
// journal/PID-file state, the way choo's Daemon owns its gRPC server,
// JobManager and db.DB (SPEC_FULL §A.3, replacing each with its upstart
// equivalent).
type Daemon struct {
	cfg     *Config
	engine  *engine.Engine
	journal *journal.Store
	sock    *control.Socket
	auth    *control.Authorizer
	pidFile *PIDFile

	stopCh chan struct{}
}

// New creates a new daemon instance: validates cfg, ensures its
// directories exist, opens the journal and wires an Engine from the
// linux process-control drivers (internal/job, internal/engine's
// osWaiter/osTraceOps).
func New(cfg *Config) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	e := engine.New(&job.OSSpawner{}, job.OSKiller{}, engine.NewOSWaiter(), engine.NewOSTraceOps(), j)

	return &Daemon{
		cfg:     cfg,
		engine:  e,
		journal: j,
		pidFile: NewPIDFile(cfg.PIDFile),
		stopCh:  make(chan struct{}),
	}, nil
}

// Engine exposes the wired Engine for test/introspection callers.
func (d *Daemon) Engine() *engine.Engine { return d.engine }

// Start acquires the PID file, binds the control socket and runs the
// engine's main loop until ctx is cancelled or a quiesce sequence
// completes. Blocks until shutdown.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.pidFile.Acquire(); err != nil {
		return fmt.Errorf("failed to acquire PID file: %w", err)
	}

	sock, err := control.Bind(d.cfg.SocketName)
	if err != nil {
		if releaseErr := d.pidFile.Release(); releaseErr != nil {
			log.Printf("error releasing PID file during cleanup: %v", releaseErr)
		}
		return fmt.Errorf("failed to bind control socket: %w", err)
	}
	d.sock = sock
	d.auth = control.NewAuthorizer(os.Getuid(), os.Getpid(), d.cfg.System)

	server := control.NewServer(sock, d.auth)
	requests := server.Requests(d.stopCh)
	signals := engine.Signals()

	log.Printf("upstart daemon started on %s (pid %d)", d.cfg.SocketName, os.Getpid())

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		d.engine.Run(d.stopCh, requests, signals)
	}()

	select {
	case <-ctx.Done():
		log.Println("received context cancellation")
	case <-runDone:
		log.Println("engine quiesce completed")
	}

	return d.shutdown(server)
}

// Shutdown asks the engine to begin its quiesce sequence rather than
// tearing the process down immediately, matching upstart's own SIGTERM
// behaviour (§4.7). Start's goroutine observes the engine's
// OnQuiesceComplete hook and returns once it finishes.
func (d *Daemon) Shutdown(now int64) {
	if d.cfg.System {
		d.engine.BeginSystemQuiesce(now)
	} else {
		d.engine.BeginQuiesce(now)
	}
}

// shutdown releases every daemon-owned resource. Each release is
// independent of the others (closing the control socket doesn't depend
// on the journal being closed first, and vice versa), so they run
// concurrently through an errgroup, replacing choo's ad hoc
// sync.WaitGroup fan-in with one that also surfaces the first error
// instead of only logging it.
func (d *Daemon) shutdown(server *control.Server) error {
	close(d.stopCh)

	var g errgroup.Group

	g.Go(func() error {
		if server == nil {
			return nil
		}
		if err := server.Close(); err != nil {
			return fmt.Errorf("closing control socket: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if d.journal == nil {
			return nil
		}
		if err := d.journal.Close(); err != nil {
			return fmt.Errorf("closing journal: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := d.pidFile.Release(); err != nil {
			return fmt.Errorf("releasing PID file: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("daemon shutdown: %v", err)
		return err
	}
	log.Println("daemon shutdown complete")
	return nil
}
