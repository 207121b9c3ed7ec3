package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/compliancewatch/internal/httpapi"
	"github.com/ppiankov/compliancewatch/internal/logging"
	"github.com/ppiankov/compliancewatch/internal/server"
)

var (
	servePort     int
	serveHTTPAddr string
	serveNoReload bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 50051, "gRPC listen port")
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http-addr", ":8080", "HTTP JSON API listen address (empty disables)")
	serveCmd.Flags().BoolVar(&serveNoReload, "no-reload", false, "Disable hot-reload of config, denylist and knowledge files")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start gRPC and HTTP assessment servers",
	Long: "Runs compliancewatch as a central assessment service over gRPC and an\n" +
		"HTTP JSON API. Supports hot-reload of the config, denylist and knowledge\n" +
		"files.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	logger := logging.Default()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	grpcSrv := server.New(a, server.Config{Port: servePort})

	var httpSrv *http.Server
	if serveHTTPAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		httpSrv = &http.Server{
			Addr:              serveHTTPAddr,
			Handler:           httpapi.NewRouter(a, version),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if !serveNoReload {
		reloader, err := server.NewReloader(a, a.WatchPaths())
		if err != nil {
			logger.Warn("hot-reload disabled", slog.Any("error", err))
		} else {
			logger.Info("hot-reload enabled", "paths", reloader.Paths())
			g.Go(func() error { return reloader.Run(gctx) })
		}
	}

	g.Go(grpcSrv.Serve)
	if httpSrv != nil {
		g.Go(func() error {
			logger.Info("http server listening", "addr", serveHTTPAddr)
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down assessment servers")
		grpcSrv.GracefulStop()
		if httpSrv != nil {
			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			return httpSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	return g.Wait()
}
