package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/zetahub/kryptonite/internal/app"
	"github.com/zetahub/kryptonite/internal/version"
	"github.com/zetahub/kryptonite/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	showVersion := flag.Bool("version", false, "display version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	application, err := app.NewApplication(logger)
	if err != nil {
		return err
	}
	defer application.DB.Close()

	wk := worker.New(&worker.Worker{
		KafkaStream: application.Kafka,
		Mailer:      application.Mailer,
		Helper:      application.Helper,
		Ctx:         context.Background(),
	})

	go wk.DepositRequestedWorker()
	go wk.WithdrawalRequestedWorker()
	go wk.WithdrawalAuthenticatedWorker()

	return application.ServeHTTP()
}
