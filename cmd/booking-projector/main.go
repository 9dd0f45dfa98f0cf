// Package main contains the entrypoint of the booking projector, which
// applies the migrations and rebuilds the booking and sleeping accommodation
// Read Models from the Event Store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/get-eventually/booking/aggregate"
	"github.com/get-eventually/booking/aggregate/snapshot"
	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/extension/correlation"
	bookingprometheus "github.com/get-eventually/booking/extension/prometheus"
	"github.com/get-eventually/booking/extension/zaplogger"
	eventuallyfirestore "github.com/get-eventually/booking/firestore"
	"github.com/get-eventually/booking/internal/config"
	"github.com/get-eventually/booking/internal/domain/accommodation"
	"github.com/get-eventually/booking/internal/domain/booking"
	"github.com/get-eventually/booking/internal/readmodel"
	"github.com/get-eventually/booking/logger"
	"github.com/get-eventually/booking/oteleventually"
	"github.com/get-eventually/booking/postgres"
	"github.com/get-eventually/booking/projection"
	"github.com/get-eventually/booking/sqlite"
)

// Rebuild targets accepted by the -target flag.
const (
	targetAll            = "all"
	targetBookings       = "bookings"
	targetAccommodations = "accommodations"
)

type flags struct {
	target string
	id     string
	serve  bool
}

func parseFlags() flags {
	var f flags

	flag.StringVar(&f.target, "target", targetAll, "read models to rebuild: all, bookings or accommodations")
	flag.StringVar(&f.id, "id", "", "rebuild a single aggregate id of the target (requires a single target)")
	flag.BoolVar(&f.serve, "serve", false, "keep serving metrics after the rebuild, until interrupted")
	flag.Parse()

	return f
}

// backend holds the Event Store components selected by the configuration.
type backend struct {
	store     event.Store
	lister    event.StreamLister
	snapshots snapshot.Store
	close     func()
}

func openBackend(ctx context.Context, cfg *config.Config, serde event.Serde) (backend, error) {
	switch cfg.EventStore.Backend {
	case config.BackendPostgres:
		if err := postgres.RunMigrations(cfg.Database.URL); err != nil {
			return backend{}, fmt.Errorf("booking-projector: failed to migrate event store, %w", err)
		}

		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return backend{}, fmt.Errorf("booking-projector: failed to connect to postgres, %w", err)
		}

		store := postgres.EventStore{Conn: pool, Serde: serde}

		return backend{store: store, lister: store, snapshots: postgres.SnapshotStore{Conn: pool}, close: pool.Close}, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.EventStore.SQLitePath)
		if err != nil {
			return backend{}, fmt.Errorf("booking-projector: failed to open sqlite database, %w", err)
		}

		store := sqlite.NewEventStore(db, serde)

		return backend{
			store:     store,
			lister:    store,
			snapshots: sqlite.NewSnapshotStore(db),
			close:     func() { _ = db.Close() },
		}, nil

	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.EventStore.FirestoreProject)
		if err != nil {
			return backend{}, fmt.Errorf("booking-projector: failed to create firestore client, %w", err)
		}

		store := eventuallyfirestore.EventStore{Client: client, Serde: serde}

		return backend{
			store:     store,
			lister:    store,
			snapshots: eventuallyfirestore.SnapshotStore{Client: client},
			close:     func() { _ = client.Close() },
		}, nil

	default:
		store := event.NewInMemoryStore()

		return backend{store: store, lister: store, snapshots: snapshot.NewInMemoryStore(), close: func() {}}, nil
	}
}

// instrument wraps the Event Store with Prometheus and OpenTelemetry instrumentation,
// and stamps correlation ids on the appended Domain Events.
func instrument(store event.Store, metrics *bookingprometheus.Metrics) (event.Store, error) {
	instrumented, err := oteleventually.NewInstrumentedEventStore(bookingprometheus.EventStore{
		Store:   store,
		Metrics: metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("booking-projector: failed to instrument event store, %w", err)
	}

	return correlation.WrapEventStore(instrumented), nil
}

// instrumentRepository wraps an Event-sourced Repository with Prometheus
// and OpenTelemetry instrumentation.
func instrumentRepository[I aggregate.ID, T aggregate.Root[I]](
	typ aggregate.Type[I, T],
	repository aggregate.Repository[I, T],
	metrics *bookingprometheus.Metrics,
) (aggregate.Repository[I, T], error) {
	instrumented, err := oteleventually.NewInstrumentedRepository[I, T](typ, bookingprometheus.Repository[I, T]{
		Type:       typ,
		Repository: repository,
		Metrics:    metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("booking-projector: failed to instrument %s repository, %w", typ.Name, err)
	}

	return instrumented, nil
}

type rebuilder interface {
	Rebuild(ctx context.Context, name string) error
	RebuildAll(ctx context.Context) (int, error)
}

func rebuild(ctx context.Context, l logger.Logger, name string, r rebuilder, id string) error {
	if id != "" {
		if err := r.Rebuild(ctx, id); err != nil {
			return fmt.Errorf("booking-projector: failed to rebuild %s '%s', %w", name, id, err)
		}

		logger.Info(l, "read model rebuilt", logger.With("target", name), logger.With("id", id))

		return nil
	}

	start := time.Now()

	n, err := r.RebuildAll(ctx)
	if err != nil {
		return fmt.Errorf("booking-projector: failed to rebuild %s, %w", name, err)
	}

	logger.Info(l, "read models rebuilt",
		logger.With("target", name),
		logger.With("count", n),
		logger.With("elapsed", time.Since(start).String()),
	)

	return nil
}

func serveMetrics(l logger.Logger, address string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info(l, "metrics server started", logger.With("address", address))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(l, "metrics server exited with error", logger.Err(err))
		}
	}()

	return srv
}

//nolint:funlen // Wiring of all the components in one place.
func run(ctx context.Context) error {
	f := parseFlags()

	if f.id != "" && f.target == targetAll {
		return errors.New("booking-projector: -id requires -target bookings or accommodations")
	}

	cfg, err := config.Parse()
	if err != nil {
		return fmt.Errorf("booking-projector: failed to parse config, %w", err)
	}

	zapLogger, err := cfg.Logger()
	if err != nil {
		return fmt.Errorf("booking-projector: failed to initialize logger, %w", err)
	}

	//nolint:errcheck // No need for this error to come up if it happens.
	defer zapLogger.Sync()

	runID := uuid.NewString()
	ctx = correlation.WithCorrelationID(ctx, runID)

	l := zaplogger.Wrap(zapLogger.With(
		zap.String("backend", cfg.EventStore.Backend),
		zap.String("correlationId", runID),
	))

	metrics := bookingprometheus.NewMetrics(prometheus.DefaultRegisterer)
	srv := serveMetrics(l, cfg.Metrics.Address)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	registry := event.NewRegistry()
	if err := booking.RegisterEvents(registry); err != nil {
		return fmt.Errorf("booking-projector: failed to register booking events, %w", err)
	}

	if err := accommodation.RegisterEvents(registry); err != nil {
		return fmt.Errorf("booking-projector: failed to register accommodation events, %w", err)
	}

	b, err := openBackend(ctx, cfg, registry)
	if err != nil {
		return err
	}
	defer b.close()

	store, err := instrument(b.store, metrics)
	if err != nil {
		return err
	}

	if err := readmodel.RunMigrations(cfg.Database.URL); err != nil {
		return fmt.Errorf("booking-projector: failed to migrate read models, %w", err)
	}

	readModels, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("booking-projector: failed to connect to read models database, %w", err)
	}
	defer readModels.Close()

	bookingPolicy, err := cfg.SnapshotPolicy()
	if err != nil {
		return err
	}

	accommodationPolicy, err := cfg.SnapshotPolicy()
	if err != nil {
		return err
	}

	bookings, err := instrumentRepository[booking.ID, *booking.Booking](booking.Type,
		aggregate.NewEventSourcedRepository(store, booking.Type,
			aggregate.WithSnapshots[booking.ID, *booking.Booking](b.snapshots, booking.SnapshotSerde, bookingPolicy),
			aggregate.WithLogger[booking.ID, *booking.Booking](l),
		),
		metrics,
	)
	if err != nil {
		return err
	}

	accommodations, err := instrumentRepository[accommodation.ID, *accommodation.Accommodation](accommodation.Type,
		aggregate.NewEventSourcedRepository(store, accommodation.Type,
			aggregate.WithSnapshots[accommodation.ID, *accommodation.Accommodation](
				b.snapshots, accommodation.SnapshotSerde, accommodationPolicy,
			),
			aggregate.WithLogger[accommodation.ID, *accommodation.Accommodation](l),
		),
		metrics,
	)
	if err != nil {
		return err
	}

	options := append(cfg.ProjectionOptions(), projection.WithLogger(l))

	bookingProjection := projection.NewService(
		booking.Type,
		bookings,
		b.lister,
		booking.ParseID,
		readmodel.NewBookingMapper(readmodel.PostgresUserDirectory{Conn: readModels}, l),
		readmodel.PostgresBookingStore{Conn: readModels},
		options...,
	)

	accommodationProjection := projection.NewService(
		accommodation.Type,
		accommodations,
		b.lister,
		accommodation.ParseID,
		projection.MapperFunc[*accommodation.Accommodation, readmodel.Accommodation](readmodel.MapAccommodation),
		readmodel.PostgresAccommodationStore{Conn: readModels},
		options...,
	)

	if f.target == targetAll || f.target == targetBookings {
		if err := rebuild(ctx, l, targetBookings, bookingProjection, f.id); err != nil {
			return err
		}
	}

	if f.target == targetAll || f.target == targetAccommodations {
		if err := rebuild(ctx, l, targetAccommodations, accommodationProjection, f.id); err != nil {
			return err
		}
	}

	if f.serve {
		logger.Info(l, "serving metrics until interrupted")
		<-ctx.Done()
	}

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
