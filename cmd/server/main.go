// server runs the auth HTTP API and the gRPC health endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"

	"resume-analyzer/backend/internal/audit"
	auditrepo "resume-analyzer/backend/internal/audit/repository"
	"resume-analyzer/backend/internal/config"
	credentialrepo "resume-analyzer/backend/internal/credential/repository"
	"resume-analyzer/backend/internal/db"
	"resume-analyzer/backend/internal/delivery"
	"resume-analyzer/backend/internal/delivery/httpmail"
	"resume-analyzer/backend/internal/devotp"
	devotphandler "resume-analyzer/backend/internal/devotp/handler"
	"resume-analyzer/backend/internal/health"
	"resume-analyzer/backend/internal/httpserver"
	"resume-analyzer/backend/internal/identity/service"
	"resume-analyzer/backend/internal/logging"
	"resume-analyzer/backend/internal/otp"
	otprepo "resume-analyzer/backend/internal/otp/repository"
	"resume-analyzer/backend/internal/security"
	"resume-analyzer/backend/internal/server"
	"resume-analyzer/backend/internal/telemetry"
	telemetryotel "resume-analyzer/backend/internal/telemetry/otel"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

type stores struct {
	creds  service.CredentialRepo
	otps   otprepo.Repository
	audit  auditrepo.Repository
	pinger health.Pinger
	close  func()
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set; using in-memory stores, data is lost on restart")
		return &stores{
			creds: credentialrepo.NewMemoryRepository(),
			otps:  otprepo.NewMemoryRepository(),
			audit: auditrepo.NewMemoryRepository(),
			close: func() {},
		}, nil
	}
	pool, err := db.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	return &stores{
		creds:  credentialrepo.NewPostgresRepository(pool),
		otps:   otprepo.NewPostgresRepository(pool),
		audit:  auditrepo.NewPostgresRepository(pool),
		pinger: pool,
		close:  pool.Close,
	}, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.ServiceName, version, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:       cfg.OTLPEndpoint,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		Insecure:       cfg.OTLPInsecure,
		Logger:         logger,
	})
	if err != nil {
		return oops.Code("TELEMETRY_INIT_FAILED").Wrap(err)
	}
	providers.SetGlobal()
	metrics, err := telemetry.NewMetrics(otel.GetMeterProvider().Meter(telemetry.MeterName))
	if err != nil {
		return oops.Code("TELEMETRY_INIT_FAILED").With("operation", "register metrics").Wrap(err)
	}

	secret, err := security.LoadSecret(cfg.JWTSecret, cfg.JWTSecretFile)
	if err != nil {
		return err
	}
	tokens, err := security.NewTokenIssuer(secret, cfg.JWTIssuer, cfg.TokenTTL())
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	var channel delivery.Channel
	if cfg.MailAPIURL != "" {
		channel = httpmail.New(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailSender)
	}
	var disclosure devotp.Store
	if cfg.OTPDevDisclosure {
		logger.Warn("OTP_DEV_DISCLOSURE is on; one-time codes are logged and served at GET /dev/otp")
		disclosure = devotp.NewMemoryStore()
		channel = delivery.Fallback(channel, delivery.LogChannel{Logger: logger}, logger)
	}
	if channel == nil {
		return oops.Code("CONFIG_INVALID").Errorf("no OTP delivery channel: set MAIL_API_URL or OTP_DEV_DISCLOSURE=true")
	}

	otps, err := otp.NewManager(st.otps, channel, otp.Config{
		TTL:             cfg.OTPTTL(),
		Length:          cfg.OTPLength,
		StoreTimeout:    cfg.StoreTimeout(),
		DeliveryTimeout: cfg.DeliveryTimeout(),
		Disclosure:      disclosure,
		Logger:          logger,
		Metrics:         metrics,
	})
	if err != nil {
		return err
	}

	auditLog := audit.NewLogger(st.audit, logger,
		audit.WithEmitter(telemetryotel.NewEventEmitter(providers.LoggerProvider)),
		audit.WithStoreTimeout(cfg.StoreTimeout()),
	)
	auth := service.NewAuthService(st.creds, security.NewHasher(cfg.BcryptCost), otps, tokens, service.Options{
		StoreTimeout: cfg.StoreTimeout(),
		Audit:        auditLog,
		Metrics:      metrics,
		Logger:       logger,
	})
	readiness := health.NewChecker(st.pinger)

	deps := httpserver.Deps{
		Auth:      auth,
		Activity:  auditLog,
		Readiness: readiness,
		Logger:    logger,
	}
	if disclosure != nil {
		deps.DevOTP = devotphandler.New(disclosure).GetOTP
	}
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpserver.New(deps).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
	}()

	var grpcSrv *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return oops.Code("GRPC_LISTEN_FAILED").With("addr", cfg.GRPCAddr).Wrap(err)
		}
		grpcSrv = server.NewGRPCServer(server.Deps{Readiness: readiness, Logger: logger})
		go func() {
			logger.Info("gRPC health server listening", "addr", cfg.GRPCAddr)
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- oops.Code("GRPC_SERVE_FAILED").Wrap(err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logging.LogError(ctx, logger, "server failed", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logging.LogError(shutdownCtx, logger, "http shutdown", err)
	}
	if err := otps.Drain(shutdownCtx); err != nil {
		logging.LogError(shutdownCtx, logger, "otp delivery drain", err)
	}
	// Async audit emits run for at most telemetry.ShutdownDrainDuration.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logging.LogError(shutdownCtx, logger, "telemetry shutdown", err)
	}
	logger.Info("stopped")
	return nil
}
