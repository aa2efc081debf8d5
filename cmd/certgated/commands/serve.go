package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/certgate/certgate/internal/api"
	"github.com/certgate/certgate/internal/api/handlers"
	apimiddleware "github.com/certgate/certgate/internal/api/middleware"
	"github.com/certgate/certgate/internal/logger"
	"github.com/certgate/certgate/internal/metrics"
	"github.com/certgate/certgate/pkg/accounts"
	"github.com/certgate/certgate/pkg/auth"
	"github.com/certgate/certgate/pkg/auth/kerberos"
	"github.com/certgate/certgate/pkg/authz"
	"github.com/certgate/certgate/pkg/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the certgate server",
	Long: `Start the certgate server with the specified configuration.

The authentication, accounts and authorization backends are resolved once
at startup; an unrecognized backend name refuses to serve.

Examples:
  # Start with default config location
  certgated serve

  # Start with custom config
  certgated serve --config /etc/certgate/config.yaml

  # Start with environment variable overrides
  CERTGATE_LOGGING_LEVEL=DEBUG certgated serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return err
	}

	fmt.Printf("certgate %s - request authentication gateway\n", Version)
	logger.Info("Configuration loaded",
		"backend", cfg.Auth.Backend,
		"accounts", cfg.Auth.Accounts,
		"authorization", cfg.Auth.Authorization)

	var authMetrics *metrics.AuthMetrics
	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		authMetrics = metrics.NewAuthMetrics(nil)
		metricsSrv = metrics.NewServer(cfg.Metrics.ListenAddress)
	}

	// The kerberos backend owns a keytab watcher, so track the provider for
	// shutdown.
	var kerberosProvider *kerberos.Provider
	newKerberos := func(kc *config.KerberosConfig) (auth.Authenticator, error) {
		p, err := kerberos.NewProvider(kc, authMetrics)
		if err != nil {
			return nil, err
		}
		kerberosProvider = p
		return kerberos.NewAuthenticator(p), nil
	}

	authenticator, err := auth.New(&cfg.Auth, newKerberos)
	if err != nil {
		return fmt.Errorf("failed to initialize authentication backend: %w", err)
	}
	defer func() {
		if kerberosProvider != nil {
			kerberosProvider.Close()
		}
	}()

	resolver, err := accounts.New(&cfg.Auth, authMetrics)
	if err != nil {
		return fmt.Errorf("failed to initialize accounts backend: %w", err)
	}

	admin, err := authz.NewAdmin(&cfg.Auth, authMetrics)
	if err != nil {
		return fmt.Errorf("failed to initialize authorization backend: %w", err)
	}

	pipeline := apimiddleware.NewPipeline(authenticator, resolver, admin, authMetrics)
	router := api.NewRouter(pipeline, api.RouterConfig{
		Backends: handlers.Backends{
			Authentication: authenticator.Name(),
			Accounts:       resolver.Name(),
			Authorization:  admin.Name(),
		},
		RequestTimeout: cfg.API.RequestTimeout,
	})
	apiSrv := api.NewServer(&cfg.API, router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- apiSrv.Start() }()
	if metricsSrv != nil {
		go func() { errCh <- metricsSrv.Start() }()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("server failure", "error", err.Error())
			return err
		}
	}

	if err := apiSrv.Shutdown(ctx); err != nil {
		logger.Error("API shutdown error", "error", err.Error())
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logger.Error("metrics shutdown error", "error", err.Error())
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
