package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/joshyycmechanical/fieldserve/internal/config"
	"github.com/joshyycmechanical/fieldserve/internal/database"
	"github.com/joshyycmechanical/fieldserve/internal/invoice"
	"github.com/joshyycmechanical/fieldserve/internal/models"
	"github.com/joshyycmechanical/fieldserve/internal/notify"
	"github.com/joshyycmechanical/fieldserve/internal/queue"
	"github.com/joshyycmechanical/fieldserve/internal/queue/workers"
	"github.com/joshyycmechanical/fieldserve/internal/workflow"
	"github.com/joshyycmechanical/fieldserve/internal/workorder"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Executors reuse the API's services; the worker never fires triggers
	// itself, so the work-order service runs without an engine.
	registry := workflow.NewRegistry(workflow.NewStatusStore(db), nil)
	workOrderSvc := workorder.NewService(db, registry, nil)
	invoiceSvc := invoice.NewService(db)
	sender := notify.NewSender(db, cfg.Notify.GatewayURL, cfg.Notify.SigningSecret)

	executors := workflow.NewExecutorRegistry()
	executors.Register(models.ActionCreateInvoiceDraft, workflow.NewInvoiceDraftExecutor(invoiceSvc))
	executors.Register(models.ActionNotifyCustomer, workflow.NewNotifyCustomerExecutor(workOrderSvc, sender))

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
		},
	)

	mux := asynq.NewServeMux()
	worker := workers.NewWorkflowActionWorker(executors)
	mux.HandleFunc(queue.TypeWorkflowAction, worker.ProcessTask)

	slog.Info("starting worker", "concurrency", cfg.Worker.Concurrency)
	if err := srv.Run(mux); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
