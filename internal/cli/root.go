package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-fwpm/internal/importer"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

type globalOptions struct {
	baseURL string
	token   string
	timeout time.Duration
	verbose bool
}

func (o *globalOptions) client() (*importer.Client, error) {
	c, err := importer.NewClient(o.baseURL, o.token, o.timeout)
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("--base-url: %w", err))
	}
	return c, nil
}

func (o *globalOptions) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// NewRootCmd builds importctl. Flag defaults come from FWPM_API_URL,
// FWPM_TOKEN and FWPM_TIMEOUT.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "importctl",
		Short:         "Import implementation tasks into the task service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", envOr("FWPM_API_URL", "http://localhost:8080"), "Task service base URL")
	cmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("FWPM_TOKEN"), "Bearer token")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", envDuration("FWPM_TIMEOUT", defaultTimeout), "Timeout for each request")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log requests to stderr")

	cmd.AddCommand(newTemplateCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newTasksCmd(opts))
	cmd.AddCommand(newPreviewCmd())
	cmd.AddCommand(newImportCmd(opts))
	return cmd
}

func Execute() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(code)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return fallback
}
