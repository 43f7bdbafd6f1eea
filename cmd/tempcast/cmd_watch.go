package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tempcast/tempcast/internal/config"
	"github.com/tempcast/tempcast/internal/logging"
	"github.com/tempcast/tempcast/internal/queue"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print forecast events as they are published",
		Long:  "Subscribes to <subject_prefix>.> on the configured broker (nats) and prints every event as one line of JSON.",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	sub, err := queue.NewSubscriber(cfg.Queue)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Close() }()

	subject := queue.NewEvents(queue.NopPublisher{}, cfg.Queue.SubjectPrefix).AllSubjects()
	out := cmd.OutOrStdout()
	var mu sync.Mutex
	err = sub.Subscribe(subject, func(subject string, data []byte) error {
		mu.Lock()
		defer mu.Unlock()
		_, err := fmt.Fprintf(out, "%s %s\n", subject, data)
		return err
	})
	if err != nil {
		return err
	}
	logger.Info("Watching forecast events", "type", cfg.Queue.Type, "subject", subject)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case <-cmd.Context().Done():
	}
	return sub.Unsubscribe(subject)
}
