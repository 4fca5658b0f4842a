package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appinv "github.com/subham007-coder/Supar-Admin-Backend/internal/application/inventory"
	appnotif "github.com/subham007-coder/Supar-Admin-Backend/internal/application/notification"
	apporder "github.com/subham007-coder/Supar-Admin-Backend/internal/application/order"
	apppay "github.com/subham007-coder/Supar-Admin-Backend/internal/application/payment"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/config"
	dominv "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/inventory"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/invoice"
	domnotif "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/notification"
	domorder "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/order"
	dompay "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/payment"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/id"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/kafkanotifier"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/memory"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/notify"
	infraobs "github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/observability"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/observability/oteltrace"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/observability/prometrics"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/observability/zaplogger"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/outbox"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/payment/sandbox"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/postgres"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/infrastructure/rediscounter"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/pkg/logging"
	httppresentation "github.com/subham007-coder/Supar-Admin-Backend/internal/presentation/http"
	workerpresentation "github.com/subham007-coder/Supar-Admin-Backend/internal/presentation/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	if err := run(cfg, baseLogger, systemLogger); err != nil {
		systemLogger.Error("service_failed", zap.Error(err))
		_ = baseLogger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, baseLogger, systemLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	counters, histograms := prometrics.New(reg, "").Standard()
	tel := infraobs.New(oteltrace.New(cfg.ServiceName), zaplogger.New(baseLogger), counters, histograms)

	st, err := openStores(ctx, cfg, systemLogger)
	if err != nil {
		return err
	}
	defer st.close()

	notifier, closeNotifier := newNotifier(cfg, tel.Logger())
	defer closeNotifier()

	bus := outbox.NewBus(tel.Logger(), outbox.WithHandlerTimeout(cfg.NotificationTimeout+time.Second))
	sendConfirmation := appnotif.NewSendOrderConfirmationUseCase(notifier, domnotif.Merchant(cfg.Merchant), cfg.NotificationTimeout, tel)
	workerpresentation.RegisterOrderConfirmation(bus, sendConfirmation, tel)
	bus.Start(ctx)

	reserver := appinv.NewReserveStockUseCase(st.inventory, appinv.Mode(cfg.ReservationMode), cfg.DBTimeout, tel)
	handler := httppresentation.NewHandler(httppresentation.UseCases{
		PlaceOrder: apporder.NewPlaceOrderUseCase(st.orders, st.sequence, reserver, id.NewUUIDGenerator(), bus,
			apporder.PlaceOrderOptions{
				MaxInvoiceAttempts: cfg.InvoiceMaxAttempts,
				Policy:             apporder.ReservationPolicy(cfg.ReservationPolicy),
				DBTimeout:          cfg.DBTimeout,
				Currency:           cfg.Payment.Currency,
			}, tel),
		GetOrder:     apporder.NewGetOrderUseCase(st.orders, cfg.DBTimeout, tel),
		ListOrders:   apporder.NewListUserOrdersUseCase(st.orders, cfg.DBTimeout, tel),
		UpdateStatus: apporder.NewUpdateOrderStatusUseCase(st.orders, cfg.DBTimeout, tel),
		EnsureIntent: apppay.NewEnsurePaymentIntentUseCase(sandbox.New(), apppay.EnsureIntentOptions{
			Fallback:    dompay.Bounds{Min: cfg.Payment.MinAmount, Max: cfg.Payment.MaxAmount},
			Description: cfg.Payment.Description,
			Timeout:     cfg.GatewayTimeout,
		}, tel),
	}, httppresentation.Options{
		Currency: cfg.Payment.Currency,
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, tel)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.String("store", cfg.Store),
			zap.String("invoice_sequence", cfg.InvoiceSequence),
			zap.String("reservation_policy", cfg.ReservationPolicy),
			zap.String("reservation_mode", cfg.ReservationMode),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			systemLogger.Error("http_server_shutdown_error", zap.Error(err))
		} else {
			systemLogger.Info("http_server_stopped")
		}
		if err := bus.Stop(shutdownCtx); err != nil {
			systemLogger.Warn("event_bus_stop_incomplete", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}

type stores struct {
	orders    domorder.Repository
	inventory dominv.Repository
	sequence  invoice.Sequence
	closers   []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores selects the order and stock stores and the invoice sequence.
// The sequence is seeded from the highest persisted invoice so a restart
// never hands out a number that is already taken.
func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*stores, error) {
	st := &stores{}
	var pool *pgxpool.Pool

	switch cfg.Store {
	case config.StorePostgres:
		p, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, p.Close)
		if err := postgres.Migrate(ctx, p); err != nil {
			st.close()
			return nil, err
		}
		pool = p
		st.orders = postgres.NewOrderRepository(p)
		st.inventory = postgres.NewInventoryRepository(p)
	default:
		st.orders = memory.NewOrderRepository()
		st.inventory = memory.NewInventoryRepository()
	}

	highest, err := st.orders.MaxInvoice(ctx)
	if err != nil {
		st.close()
		return nil, fmt.Errorf("read highest invoice: %w", err)
	}

	switch {
	case cfg.InvoiceSequence == config.SequenceRedis:
		client, err := rediscounter.Dial(ctx, cfg.RedisURL)
		if err != nil {
			st.close()
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = client.Close() })
		seq := rediscounter.NewInvoiceSequence(client, rediscounter.DefaultKey, cfg.InvoiceStart)
		if err := seq.Seed(ctx, highest); err != nil {
			st.close()
			return nil, err
		}
		st.sequence = seq
	case pool != nil:
		st.sequence = postgres.NewInvoiceSequence(pool, cfg.InvoiceStart)
	default:
		st.sequence = memory.NewInvoiceSequence(cfg.InvoiceStart, highest)
	}

	log.Info("stores_ready",
		zap.String("store", cfg.Store),
		zap.String("invoice_sequence", cfg.InvoiceSequence),
		zap.Int64("highest_invoice", highest),
	)
	return st, nil
}

func newNotifier(cfg config.Config, log observability.Logger) (domnotif.Notifier, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return notify.NewLogNotifier(log), func() {}
	}
	n := kafkanotifier.New(cfg.KafkaBrokers, cfg.NotificationTopic)
	return n, func() {
		if err := n.Close(); err != nil {
			log.Warn("notifier_close_failed", observability.F("error", err))
		}
	}
}
