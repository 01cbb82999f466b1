package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"

	"timerless/internal/config"
	"timerless/internal/cycle"
	"timerless/internal/cyclelog"
	"timerless/internal/ipc"
	"timerless/internal/session"
	"timerless/internal/source"
	"timerless/internal/source/httpsource"
	"timerless/internal/storage"

	sqlitestore "timerless/internal/storage/sqlite"
)

type App struct {
	cfg      *config.Config
	storage  storage.Storage
	remote   source.Remote
	sessions *session.Manager
	history  *cyclelog.Log
	now      func() time.Time

	socketPath string
	listener   *net.UnixListener

	// Mutations of local state are executed on the poll loop between polls.
	requests  chan request
	intervals chan time.Duration

	wg     conc.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	// Owned by the poll loop.
	state      cycle.State
	checkpoint *cycle.Checkpoint
	committed  int

	status      ipc.StatusData
	statusMutex sync.RWMutex
}

func NewApp(cfg *config.Config) (*App, error) {
	store := sqlitestore.NewSQLiteStore(cfg.DatabasePath)
	remote := httpsource.New(cfg.ServerURL, cfg.RequestTimeout())
	return newApp(cfg, store, remote, nil)
}

func newApp(cfg *config.Config, store storage.Storage, remote source.Remote, gen session.Generator) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		cfg:        cfg,
		storage:    store,
		remote:     remote,
		now:        time.Now,
		socketPath: cfg.SocketPath,
		requests:   make(chan request),
		intervals:  make(chan time.Duration, 1),
		ctx:        ctx,
		cancel:     cancel,
	}
	if a.socketPath == "" {
		a.socketPath = config.DefaultSocketPath
	}

	if err := a.storage.Init(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.sessions = session.NewManager(store, gen)
	a.history = cyclelog.New(store, a.sessions)
	return a, nil
}

// Run serves commands and polls the timer until a signal arrives.
func (a *App) Run() (err error) {
	defer func() { err = multierr.Append(err, a.cleanup()) }()

	log.Println("Starting timerless daemon...")
	log.Printf("Polling %s every %s", a.cfg.ServerURL, a.cfg.PollInterval())

	if err := a.setupSocket(); err != nil {
		return fmt.Errorf("failed to set up socket: %w", err)
	}
	a.handleSignals()

	a.wg.Go(func() { a.pollLoop(a.ctx) })
	a.wg.Go(a.listenForCommands)

	log.Println("timerless daemon running. Send commands via timerless-cli or socket.")
	<-a.ctx.Done()

	log.Println("Shutdown signal received, waiting for components...")
	if a.listener != nil {
		log.Println("Closing command socket listener...")
		if err := a.listener.Close(); err != nil {
			log.Printf("Error closing socket listener: %v", err)
		}
	}

	waitChan := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(waitChan)
	}()

	select {
	case <-waitChan:
		log.Println("All daemon goroutines finished.")
	case <-time.After(5 * time.Second):
		log.Println("Warning: Timeout waiting for daemon goroutines to stop.")
	}
	return nil
}

// Stop asks a running daemon to shut down.
func (a *App) Stop() {
	a.cancel()
}

// Reconfigure applies a reloaded config. Only the poll interval is picked
// up live; other keys take effect on restart.
func (a *App) Reconfigure(cfg *config.Config) {
	if cfg.ServerURL != a.cfg.ServerURL || cfg.DatabasePath != a.cfg.DatabasePath || cfg.SocketPath != a.cfg.SocketPath {
		log.Println("Warning: server_url, database_path and socket_path changes need a daemon restart")
	}
	select {
	case a.intervals <- cfg.PollInterval():
	default:
		log.Println("Warning: previous poll interval change still pending, dropping this one")
	}
}

func (a *App) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Printf("Received signal: %v. Initiating shutdown...", sig)
			a.cancel()
		case <-a.ctx.Done():
		}
	}()
}

func (a *App) cleanup() error {
	log.Println("Running cleanup...")
	a.cancel()

	var err error
	if a.storage != nil {
		if cerr := a.storage.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("closing storage: %w", cerr))
		}
	}
	// The socket file is only ours once we are listening on it.
	if _, statErr := os.Stat(a.socketPath); a.listener != nil && statErr == nil {
		log.Printf("Removing socket file: %s", a.socketPath)
		if rerr := os.Remove(a.socketPath); rerr != nil {
			err = multierr.Append(err, fmt.Errorf("removing socket file %s: %w", a.socketPath, rerr))
		}
	}

	if err != nil {
		log.Printf("Warning: cleanup finished with errors: %v", err)
		return err
	}
	log.Println("Cleanup finished.")
	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
