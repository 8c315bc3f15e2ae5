package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mosaic/internal/app"
	"mosaic/internal/platform/config"
	"mosaic/internal/platform/httpserver"
	"mosaic/internal/platform/logger"
)

type builder func(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...app.Option) (*app.Server, error)

func compositeCmd() *cobra.Command {
	return serviceCmd("composite", "Serve the product composite gateway", app.NewComposite)
}

func productCmd() *cobra.Command {
	return serviceCmd("product", "Serve the product service", app.NewProduct)
}

func recommendationCmd() *cobra.Command {
	return serviceCmd("recommendation", "Serve the recommendation service", app.NewRecommendation)
}

func reviewCmd() *cobra.Command {
	return serviceCmd("review", "Serve the review service", app.NewReview)
}

func serviceCmd(use, short string, build builder) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := build(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("start %s: %w", use, err)
			}
			return app.Run(ctx, srv, cfg.Server.Addr, cfg.Server.ShutdownTimeout, log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	return cmd
}

// allCmd runs the gateway and the three services in one process. With the
// default memory bus this is the only deployment where commands reach consumers.
func allCmd() *cobra.Command {
	var productAddr, recommendationAddr, reviewAddr string
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Serve the gateway and every backing service in one process",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bus, err := app.NewBus(ctx, cfg, log, nil)
			if err != nil {
				return err
			}
			defer func() {
				if err := bus.Close(); err != nil {
					log.Error("close bus failed", "error", err)
				}
			}()

			cfg.Composite.ProductURL = localURL(productAddr)
			cfg.Composite.RecommendationURL = localURL(recommendationAddr)
			cfg.Composite.ReviewURL = localURL(reviewAddr)

			g, gctx := errgroup.WithContext(ctx)
			start := func(build builder, addr string) error {
				srv, err := build(gctx, cfg, log, app.WithBus(bus), app.WithAddress(httpserver.ServiceAddress(addr)))
				if err != nil {
					return err
				}
				g.Go(func() error {
					return app.Run(gctx, srv, addr, cfg.Server.ShutdownTimeout, log)
				})
				return nil
			}
			if err := start(app.NewProduct, productAddr); err != nil {
				return err
			}
			if err := start(app.NewRecommendation, recommendationAddr); err != nil {
				return err
			}
			if err := start(app.NewReview, reviewAddr); err != nil {
				return err
			}
			if err := start(app.NewComposite, cfg.Server.Addr); err != nil {
				return err
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&productAddr, "product-addr", ":7001", "product service listen address")
	cmd.Flags().StringVar(&recommendationAddr, "recommendation-addr", ":7002", "recommendation service listen address")
	cmd.Flags().StringVar(&reviewAddr, "review-addr", ":7003", "review service listen address")
	return cmd
}

func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.New(cfg.Log.Level, cfg.Log.Format), nil
}

func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
