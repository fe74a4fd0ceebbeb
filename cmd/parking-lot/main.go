package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"parking-billing/internal/billing"
	"parking-billing/internal/clock"
	"parking-billing/internal/config"
	"parking-billing/internal/logging"
	"parking-billing/internal/metrics"
	"parking-billing/internal/parking"
	"parking-billing/internal/server"
	"parking-billing/internal/shell"
	"parking-billing/internal/telemetry"
)

var version = "1.0.0"

type options struct {
	slots     int
	records   string
	adminAddr string
	envFile   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "parking-lot",
		Short: "Interactive parking lot with time-based billing",
		Long: `parking-lot runs a single-facility parking lot from a numbered menu:
reserve slots, free them with a bill, preview bills and view occupancy.
Every bill is printed and appended to the records file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.slots, "slots", -1, "Total parking slots (prompted when negative)")
	cmd.Flags().StringVar(&opts.records, "records", "", "Bill records file (overrides PARKING_RECORDS_FILE)")
	cmd.Flags().StringVar(&opts.adminAddr, "admin-addr", "", "Serve the read-only admin API on this address, e.g. :8080")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "Optional dotenv file loaded before reading the environment")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.records != "" {
		cfg.RecordsPath = opts.records
	}
	if opts.adminAddr != "" {
		cfg.AdminAddr = opts.adminAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init(cfg.IsDevelopment(), cfg.LogLevel, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.New(ctx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  cfg.OTelServiceName,
		OTLPEndpoint: cfg.OTelEndpoint,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer shutdownTelemetry(tp)

	out := cmd.OutOrStdout()
	in := shell.NewInput(cmd.InOrStdin(), out)

	capacity := opts.slots
	if capacity < 0 {
		capacity, err = shell.ReadCapacity(in)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	clk := clock.NewSystem()
	lot, err := parking.NewInstrumentedParkingLot(capacity, clk, tp)
	if err != nil {
		return fmt.Errorf("create parking lot: %w", err)
	}

	m := metrics.New(lot)
	biller := billing.New(billing.Config{
		RatePerMinute:    cfg.RatePerMinute,
		AdditionalCharge: cfg.AdditionalCharge,
		Clock:            clk,
		Out:              out,
		Ledger:           billing.NewFileLedger(cfg.RecordsPath, cfg.RecordsFormat),
		Recorder:         m,
		Tracer:           tp.Tracer(),
	})

	logging.Info(ctx).
		Int("slots", capacity).
		Str("records", cfg.RecordsPath).
		Msg("parking lot ready")

	var srv *server.Server
	serverDone := make(chan error, 1)
	if cfg.AdminAddr != "" {
		handler := server.NewHandler(cfg.OTelServiceName, lot, biller)
		srv = server.NewServer(cfg.AdminAddr, server.NewRouter(handler, m, tp))
		go func() {
			serverDone <- srv.Start()
		}()
	}

	shellDone := make(chan error, 1)
	go func() {
		shellDone <- shell.New(lot, biller, in, out, tp).Run(ctx)
	}()

	var runErr error
	select {
	case runErr = <-shellDone:
	case runErr = <-serverDone:
		if runErr != nil {
			runErr = fmt.Errorf("admin server: %w", runErr)
		}
	case <-ctx.Done():
		logging.Logger().Info().Msg("received shutdown signal")
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Logger().Error().Err(err).Msg("admin server shutdown")
		}
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func shutdownTelemetry(tp *telemetry.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tp.Shutdown(ctx); err != nil {
		logging.Logger().Error().Err(err).Msg("shutting down telemetry")
	}
}
