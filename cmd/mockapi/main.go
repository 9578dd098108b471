package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"kilometers.ai/shop/test/mockapi"
)

// Mock storefront backend for running the shop CLI locally

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		addr     string
		basePath string
		ttl      time.Duration
		otp      string
		users    []string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:          "mockapi",
		Short:        "Serve an in-memory storefront backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := hclog.Info
			if verbose {
				level = hclog.Debug
			}
			logger := hclog.New(&hclog.LoggerOptions{Name: "mockapi", Level: level, Output: cmd.ErrOrStderr()})

			builder := mockapi.NewBuilder().
				WithBasePath(basePath).
				WithAccessTTL(ttl).
				WithOTP(otp).
				WithLogger(logger).
				WithProducts(mockapi.DefaultProducts()...)
			for _, u := range users {
				parts := strings.SplitN(u, ":", 3)
				if len(parts) != 3 {
					return fmt.Errorf("invalid --user %q, expected name:email:password", u)
				}
				builder.WithUser(parts[0], parts[1], parts[2])
			}
			backend, err := builder.Backend()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, logger, addr, backend)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:3001", "Listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/api/v1", "Prefix of every route")
	cmd.Flags().DurationVar(&ttl, "access-ttl", 15*time.Minute, "Lifetime of issued access tokens")
	cmd.Flags().StringVar(&otp, "otp", "123456", "One-time code accepted by verify and reset-password")
	cmd.Flags().StringArrayVar(&users, "user", []string{"Demo Shopper:demo@example.com:Demo1234"}, "Seed account as name:email:password (repeatable)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every request")
	return cmd
}

func serve(ctx context.Context, logger hclog.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
