package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/facevote/internal/client/client"
	"github.com/dmitrijs2005/facevote/internal/client/config"
	"github.com/dmitrijs2005/facevote/internal/client/models"
	"github.com/dmitrijs2005/facevote/internal/client/repositories/receipts"
	"github.com/dmitrijs2005/facevote/internal/client/services"
	"github.com/dmitrijs2005/facevote/internal/client/workflow"
	"github.com/dmitrijs2005/facevote/internal/filex"
	"github.com/dmitrijs2005/facevote/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// receiptsDBName is the SQLite file created in the data directory.
const receiptsDBName = "receipts.db"

type pinger interface {
	Ping(ctx context.Context) error
}

type receiptLister interface {
	Receipts(ctx context.Context, voter string) ([]models.Receipt, error)
}

// session is the part of *workflow.Workflow the CLI drives.
type session interface {
	Mode() workflow.AuthMode
	Snapshot() workflow.Session
	Start(ctx context.Context) error
	Submit(ctx context.Context, candidate string) (workflow.Receipt, error)
	Retry(ctx context.Context) error
	Abandon(ctx context.Context) error
	Reset(ctx context.Context) error
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	wf       session
	receipts receiptLister
	prober   pinger
	closers  []io.Closer
	reader   *bufio.Reader
	out      io.Writer

	mu   sync.Mutex
	Mode Mode
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewTextLogger(os.Stderr, logging.ParseLevel(c.LogLevel))

	authMode, err := workflow.ParseAuthMode(c.AuthMode)
	if err != nil {
		return nil, err
	}

	dbPath, err := filex.DataFile(c.DataDir, receiptsDBName)
	if err != nil {
		return nil, fmt.Errorf("error creating data dir: %w", err)
	}
	db, err := client.InitDatabase(ctx, dbPath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	prober, err := client.NewHealthProber(c.HealthAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout, c.RecognitionTimeout)
	votes := services.NewVoteService(api, receipts.NewSQLiteRepository(db), logger)

	app := &App{
		config:   c,
		logger:   logger.With("module", "cli"),
		receipts: votes,
		prober:   prober,
		closers:  []io.Closer{prober, db},
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}

	wf, err := workflow.New(authMode, workflow.Capabilities{
		Biometric:   services.NewBiometricAuthenticator(api),
		Standard:    services.NewStandardAuthenticator(app.promptUsername),
		Eligibility: services.NewEligibilityService(api),
		Submitter:   votes,
	}, logger, workflow.WithObserver(app.onTransition))
	if err != nil {
		app.close()
		return nil, err
	}
	app.wf = wf

	return app, nil
}

var _ session = (*workflow.Workflow)(nil)
var _ pinger = (*client.HealthProber)(nil)

func (a *App) promptUsername(ctx context.Context) (string, error) {
	return GetSimpleText(a.reader, "Enter your username", a.out)
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), fmt.Sprintf("Switched to %s mode", mode))
	}
}

func (a *App) getMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

// Run prints the welcome banner, starts the connectivity watcher and blocks
// in the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printlnFn("Welcome to facevote CLI (type 'help' for commands)")
	if banner := statusBanner(a.wf.Mode()); banner != "" {
		printlnFn(banner)
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	var statusFn func() string
	if isTerminal(int(os.Stdin.Fd())) {
		statusFn = a.getStatus
	}
	runREPL(ctx, a, statusFn, a.reader)
	return nil
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	a.closers = nil
}

// StartOnlineStatusWatcher probes the server every interval and switches
// between online and offline mode. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.prober.Ping(ctx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
}
