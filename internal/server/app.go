// Package server initializes and runs the facevote server: the JSON API
// with the face-recognition route, the gRPC health endpoint and a
// readiness watcher that keeps health statuses current.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/facevote/internal/logging"
	"github.com/dmitrijs2005/facevote/internal/server/auth"
	"github.com/dmitrijs2005/facevote/internal/server/config"
	"github.com/dmitrijs2005/facevote/internal/server/httpapi"
	"github.com/dmitrijs2005/facevote/internal/server/limiter"
	"github.com/dmitrijs2005/facevote/internal/server/metrics"
	"github.com/dmitrijs2005/facevote/internal/server/recognition"
	"github.com/dmitrijs2005/facevote/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/facevote/internal/server/services"
	"github.com/dmitrijs2005/facevote/internal/server/transcripts"

	gs "github.com/dmitrijs2005/facevote/internal/server/grpc"
)

const readinessInterval = 15 * time.Second

// openDB is a seam for tests.
var openDB = repomanager.OpenPostgres

type pinger interface {
	PingContext(ctx context.Context) error
}

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         pinger
	closers    []io.Closer
	httpServer *httpapi.Server
	grpcServer *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, closers: []io.Closer{db}}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	vs := services.NewVoterService(db, rm)
	bs := services.NewBallotService(db, rm)

	if err := app.importVoters(ctx, vs); err != nil {
		app.close()
		return nil, err
	}

	recognizer, err := buildRecognizer(c, logger)
	if err != nil {
		app.close()
		return nil, err
	}

	archive, err := buildArchive(ctx, c)
	if err != nil {
		app.close()
		return nil, err
	}

	lim, rdb := buildLimiter(c)
	if rdb != nil {
		app.closers = append(app.closers, rdb)
	}

	issuer := auth.NewIssuer(c.SecretKey, c.VoterTokenValidityDuration)

	deps := httpapi.Deps{
		Recognizer: recognizer,
		Request: recognition.Request{
			DurationSeconds:     c.RecognitionDuration,
			ConfidenceThreshold: c.ConfidenceThreshold,
		},
		Translator: recognition.NewTranslator(issuer, logger),
		Limiter:    lim,
		Archive:    archive,
		Metrics:    metrics.New(),
		Voters:     vs,
		Ballots:    bs,
		TrustProxy: c.TrustProxy,
	}
	if c.RequireVoterToken {
		deps.Tokens = issuer
	}

	app.httpServer = httpapi.New(c.EndpointAddrHTTP, logger, deps)
	app.grpcServer = gs.NewGRPCServer(c.EndpointAddrGRPC, logger)

	return app, nil
}

func (app *App) importVoters(ctx context.Context, vs *services.VoterService) error {
	if app.config.VotersFile == "" {
		return nil
	}

	voters, err := services.LoadVotersFile(app.config.VotersFile)
	if err != nil {
		return err
	}
	n, err := vs.Import(ctx, voters)
	if err != nil {
		return fmt.Errorf("voters import error: %w", err)
	}
	app.logger.Info(ctx, "voters imported", "added", n, "total", len(voters))
	return nil
}

func buildRecognizer(c *config.Config, l logging.Logger) (recognition.Recognizer, error) {
	var r recognition.Recognizer = recognition.NewSubprocess(c.RecognizerCommand, l,
		recognition.WithArgs(c.RecognizerArgs...),
		recognition.WithDir(c.RecognizerDir),
		recognition.WithTimeout(c.RecognitionTimeout),
	)

	if c.UsernameMappingFile != "" {
		m, err := recognition.LoadMapping(c.UsernameMappingFile)
		if err != nil {
			return nil, err
		}
		r = recognition.NewMapped(r, m)
	}
	return r, nil
}

func buildLimiter(c *config.Config) (limiter.Limiter, *redis.Client) {
	if c.RedisAddr == "" {
		return limiter.Nop{}, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	return limiter.NewRedisLimiter(rdb, c.AttemptLimit, c.AttemptWindow), rdb
}

func buildArchive(ctx context.Context, c *config.Config) (transcripts.Archive, error) {
	if !c.ArchiveTranscripts {
		return transcripts.Nop{}, nil
	}
	a, err := transcripts.NewS3Archive(ctx, transcripts.S3Settings{
		User:         c.S3RootUser,
		Password:     c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("transcript archive init error: %w", err)
	}
	return a, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// updateReadiness reports database reachability and whether the
// recognizer command can be found.
func (app *App) updateReadiness(ctx context.Context) {
	dbOK := app.db != nil && app.db.PingContext(ctx) == nil
	app.grpcServer.SetServing(gs.ServiceDatabase, dbOK)

	_, err := exec.LookPath(app.config.RecognizerCommand)
	app.grpcServer.SetServing(gs.ServiceRecognition, err == nil)

	if !dbOK || err != nil {
		app.logger.Warn(ctx, "not ready", "database", dbOK, "recognizer", err == nil)
	}
}

func (app *App) watchReadiness(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		app.updateReadiness(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

func (app *App) close() {
	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			app.logger.Warn(context.Background(), "close", "error", err)
		}
	}
	app.closers = nil
}

// Run serves until a termination signal arrives or one of the servers
// fails, then stops the rest and releases resources.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return app.httpServer.Run(ctx) })
	g.Go(func() error { return app.grpcServer.Run(ctx) })
	g.Go(func() error { return app.watchReadiness(ctx, readinessInterval) })

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}

var _ pinger = (*sql.DB)(nil)
