package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/yanyucloud/flowd/pkg/engine"
	"github.com/yanyucloud/flowd/pkg/eventbus"
	"github.com/yanyucloud/flowd/pkg/executors"
	"github.com/yanyucloud/flowd/pkg/executors/notification"
	"github.com/yanyucloud/flowd/pkg/log"
	"github.com/yanyucloud/flowd/pkg/persistence/file"
	"github.com/yanyucloud/flowd/pkg/registry"
	"github.com/yanyucloud/flowd/pkg/scheduler"
	"github.com/yanyucloud/flowd/pkg/web"
)

func runServer(ctx context.Context, dataDir string, port int) error {
	logger := log.WithModule("flowd")
	clock := clockwork.NewRealClock()

	store := file.NewPersistence(dataDir, logger)
	bus := eventbus.NewGoChannelEventBus(logger)

	reg := registry.NewRegistry(logger)
	executors.RegisterAll(reg, executors.Dependencies{
		Notifier: notification.NewSlogNotifier(logger),
		EventBus: bus,
		Clock:    clock,
	})

	eng := engine.New(engine.Config{
		Logger:      logger,
		Persistence: store,
		Scheduler:   scheduler.New(clock, logger),
		Registry:    reg,
		EventBus:    bus,
		Clock:       clock,
	})

	if _, err := eng.LoadExecutions(ctx); err != nil {
		return err
	}

	workflows, err := eng.LoadWorkflows(ctx)
	if err != nil {
		return err
	}

	logger.Info("Engine ready", "workflows", len(workflows), "data_dir", dataDir)

	app := web.NewApp(eng)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Shutting down")

		if err := app.Shutdown(); err != nil {
			logger.Error("Failed to shut down API server", "error", err)
		}
	}()

	defer func() {
		if err := eng.Close(context.Background()); err != nil {
			logger.Error("Failed to close engine", "error", err)
		}
	}()

	return app.Listen(":" + strconv.Itoa(port))
}
