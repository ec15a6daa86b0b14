package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/cbodonnell/solongsucker/client/game"
	"github.com/cbodonnell/solongsucker/client/gamesync"
	"github.com/cbodonnell/solongsucker/client/network"
	"github.com/cbodonnell/solongsucker/pkg/api"
	"github.com/cbodonnell/solongsucker/pkg/config"
	"github.com/cbodonnell/solongsucker/pkg/log"
	"github.com/cbodonnell/solongsucker/pkg/recording"
	"github.com/cbodonnell/solongsucker/pkg/repositories"
	"github.com/cbodonnell/solongsucker/pkg/version"
	"github.com/cbodonnell/solongsucker/pkg/workers"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load(os.Args[0], os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(2)
	}

	parsedLogLevel, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting spectator version %s", version.Get())

	if err := run(cfg); err != nil {
		log.Error("Spectator failed: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := gamesync.NewClient(gamesync.Options{
		ChannelFactory: network.NewWSChannelFactory(network.WSChannelOptions{
			URL:         cfg.ServerURL,
			DialTimeout: cfg.DialTimeout,
			ReadLimit:   cfg.ReadLimit,
		}),
		ReconnectDelay: cfg.ReconnectDelay,
	})
	client.SubscribeErrors(func(err error) {
		log.Debug("Sync client error: %v", err)
	})

	repository, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	if repository != nil {
		defer repository.Close(context.Background())
	}

	var recorder *recording.Recorder
	if cfg.RecordPath != "" {
		recorder, err = recording.Create(cfg.RecordPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := recorder.Close(); err != nil {
				log.Error("Failed to close recording: %v", err)
			}
			log.Info("Recorded %d snapshots to %s", recorder.Count(), cfg.RecordPath)
		}()
	}

	// workers drain after the client stops producing snapshots and before
	// the recorder and repository are closed
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	workersWG := &sync.WaitGroup{}
	defer func() {
		cancelWorkers()
		workersWG.Wait()
	}()

	if recorder != nil {
		recordWorker := workers.NewRecordWorker(workers.NewRecordWorkerOptions{
			Recorder: recorder,
		})
		workersWG.Add(1)
		go func() {
			defer workersWG.Done()
			recordWorker.Start(workerCtx)
		}()
		log.Info("Recording session %s to %s", recorder.Session(), cfg.RecordPath)
		client.Subscribe(recordWorker.Observe)
	}

	if repository != nil {
		session := uuid.New().String()
		archiveWorker := workers.NewArchiveWorker(workers.NewArchiveWorkerOptions{
			Repository: repository,
			Session:    session,
		})
		workersWG.Add(1)
		go func() {
			defer workersWG.Done()
			archiveWorker.Start(workerCtx)
		}()
		log.Info("Archiving snapshots as session %s", session)
		client.Subscribe(archiveWorker.Observe)
	}

	if cfg.APIPort != "" {
		port, err := strconv.Atoi(cfg.APIPort)
		if err != nil {
			return fmt.Errorf("invalid api port: %v", err)
		}
		apiServer := api.NewAPIServer(api.NewAPIServerOptions{
			Port:       port,
			Client:     client,
			Repository: repository,
		})
		go apiServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := apiServer.Stop(shutdownCtx); err != nil {
				log.Error("Failed to stop API server: %v", err)
			}
		}()
	}

	view := game.NewGame(game.NewGameOptions{
		Client:    client,
		Out:       os.Stdout,
		AutoStart: cfg.AutoStart,
	})

	clientDone := make(chan struct{})
	go func() {
		defer close(clientDone)
		client.Run(ctx)
	}()

	log.Info("Spectating game server at %s", cfg.ServerURL)
	view.Start()
	<-ctx.Done()

	log.Info("Shutting down")
	view.Stop()
	<-clientDone
	return nil
}

func openRepository(ctx context.Context, cfg *config.Config) (repositories.Repository, error) {
	switch {
	case cfg.ArchiveSQLite != "":
		return repositories.NewSQLiteRepository(ctx, cfg.ArchiveSQLite)
	case cfg.ArchivePostgres != "":
		return repositories.NewPostgresRepository(ctx, cfg.ArchivePostgres)
	default:
		return nil, nil
	}
}
