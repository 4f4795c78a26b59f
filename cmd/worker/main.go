package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teampulse/teampulse/internal/setup"
	insightworker "github.com/teampulse/teampulse/internal/worker/insight"
	"github.com/teampulse/teampulse/internal/worker/sweep"
	"github.com/urfave/cli/v3"
)

// WorkerLogDir specifies where worker log files are stored.
const WorkerLogDir = "logs/worker_logs"

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "worker",
		Usage: "Start the teampulse workers",
		Commands: []*cli.Command{
			{
				Name:  "sweep",
				Usage: "Start the periodic sentiment scoring sweep",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return runSweep(ctx)
				},
			},
			{
				Name:  "insight",
				Usage: "Start the weekly insight worker",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "once",
						Usage: "Run a single insight pass and exit",
					},
					&cli.TimestampFlag{
						Name:  "window",
						Usage: "Window start (RFC3339, UTC day boundary) for --once",
						Config: cli.TimestampConfig{
							Layouts: []string{time.RFC3339},
						},
					},
					&cli.StringSliceFlag{
						Name:  "channels",
						Usage: "Channel IDs to target for --once (default all active)",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runInsight(ctx, c)
				},
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}

// runSweep starts the sweeping loop until interrupted.
func runSweep(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := setup.InitializeApp(ctx, WorkerLogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	sweep.New(app, app.Logger).Start(ctx)

	return nil
}

// runInsight starts the weekly schedule, or one pass with --once.
func runInsight(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := setup.InitializeApp(ctx, WorkerLogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	worker := insightworker.New(app, app.Logger)

	if c.Bool("once") {
		windowStart := c.Timestamp("window")
		if windowStart.IsZero() {
			windowStart = insightworker.LastCompletedWindow(time.Now().UTC())
		}

		worker.RunOnce(ctx, windowStart, c.StringSlice("channels"))

		return nil
	}

	worker.Start(ctx)

	return nil
}
