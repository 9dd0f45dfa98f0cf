package readmodel

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/get-eventually/booking/internal/domain/accommodation"
	"github.com/get-eventually/booking/internal/domain/booking"
	"github.com/get-eventually/booking/internal/postgres"
	"github.com/get-eventually/booking/projection"
	"github.com/get-eventually/booking/version"
)

//go:embed migrations/*.sql
var fs embed.FS

// MigrationsTable is the table used to keep track of the Read Model migrations.
const MigrationsTable = "booking_readmodel_migrations"

// RunMigrations runs the latest migrations for the Read Model tables.
func RunMigrations(dsn string) error {
	return postgres.RunMigrations(dsn, fs, "migrations", MigrationsTable)
}

var (
	_ projection.Store[Booking]       = PostgresBookingStore{}
	_ projection.Store[Accommodation] = PostgresAccommodationStore{}
	_ UserDirectory                   = PostgresUserDirectory{}
)

const bookingColumns = `id, user_id, user_name, user_email, start_date, end_date, status, notes,
	items, total_persons, number_of_nights, created_at, changed_at, last_event_version`

// PostgresBookingStore stores Booking Read Models in the "booking_read_models" table.
type PostgresBookingStore struct {
	Conn *pgxpool.Pool
}

// Upsert implements the projection.Store interface.
//
// Rows built from a newer Aggregate version than the upserted one are left untouched.
func (s PostgresBookingStore) Upsert(ctx context.Context, b Booking) error {
	items, err := json.Marshal(b.Items)
	if err != nil {
		return fmt.Errorf("readmodel.PostgresBookingStore: failed to marshal items, %w", err)
	}

	if _, err := s.Conn.Exec(
		ctx,
		`INSERT INTO booking_read_models (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			user_name = EXCLUDED.user_name,
			user_email = EXCLUDED.user_email,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			status = EXCLUDED.status,
			notes = EXCLUDED.notes,
			items = EXCLUDED.items,
			total_persons = EXCLUDED.total_persons,
			number_of_nights = EXCLUDED.number_of_nights,
			created_at = EXCLUDED.created_at,
			changed_at = EXCLUDED.changed_at,
			last_event_version = EXCLUDED.last_event_version
		WHERE booking_read_models.last_event_version <= EXCLUDED.last_event_version`,
		b.ID, b.UserID, b.UserName, b.UserEmail, b.StartDate, b.EndDate, string(b.Status), b.Notes,
		items, b.TotalPersons, b.NumberOfNights, b.CreatedAt, b.ChangedAt, int64(b.LastEventVersion),
	); err != nil {
		return fmt.Errorf("readmodel.PostgresBookingStore: failed to upsert booking, %w", err)
	}

	return nil
}

// Get returns the Booking Read Model with the specified id, if any.
func (s PostgresBookingStore) Get(ctx context.Context, id uuid.UUID) (Booking, bool, error) {
	rows, err := s.Conn.Query(ctx, `SELECT `+bookingColumns+` FROM booking_read_models WHERE id = $1`, id)
	if err != nil {
		return Booking{}, false, fmt.Errorf("readmodel.PostgresBookingStore: failed to query booking, %w", err)
	}

	b, err := pgx.CollectOneRow(rows, scanBooking)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, false, nil
	}

	if err != nil {
		return Booking{}, false, fmt.Errorf("readmodel.PostgresBookingStore: failed to scan booking, %w", err)
	}

	return b, true, nil
}

// List returns the Bookings matching the filter, ordered by start date.
func (s PostgresBookingStore) List(ctx context.Context, filter BookingFilter) ([]Booking, error) {
	var (
		conditions []string
		args       []any
	)

	where := func(condition string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.Status != nil {
		where("status = $%d", string(*filter.Status))
	}

	if filter.UserID != nil {
		where("user_id = $%d", *filter.UserID)
	}

	if filter.From != nil {
		where("end_date > $%d", *filter.From)
	}

	if filter.To != nil {
		where("start_date < $%d", *filter.To)
	}

	query := `SELECT ` + bookingColumns + ` FROM booking_read_models`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}

	rows, err := s.Conn.Query(ctx, query+` ORDER BY start_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("readmodel.PostgresBookingStore: failed to query bookings, %w", err)
	}

	bookings, err := pgx.CollectRows(rows, scanBooking)
	if err != nil {
		return nil, fmt.Errorf("readmodel.PostgresBookingStore: failed to scan bookings, %w", err)
	}

	return bookings, nil
}

func scanBooking(row pgx.CollectableRow) (Booking, error) {
	var (
		b                Booking
		status           string
		items            []byte
		lastEventVersion int64
	)

	if err := row.Scan(
		&b.ID, &b.UserID, &b.UserName, &b.UserEmail, &b.StartDate, &b.EndDate, &status, &b.Notes,
		&items, &b.TotalPersons, &b.NumberOfNights, &b.CreatedAt, &b.ChangedAt, &lastEventVersion,
	); err != nil {
		return Booking{}, err
	}

	if err := json.Unmarshal(items, &b.Items); err != nil {
		return Booking{}, fmt.Errorf("failed to unmarshal items, %w", err)
	}

	b.Status = booking.Status(status)
	b.LastEventVersion = version.Version(lastEventVersion)
	b.CreatedAt = b.CreatedAt.UTC()
	b.ChangedAt = utcPtr(b.ChangedAt)

	return b, nil
}

const accommodationColumns = `id, name, type, max_capacity, is_active, created_at, changed_at, last_event_version`

// PostgresAccommodationStore stores Sleeping Accommodation Read Models
// in the "sleeping_accommodation_read_models" table.
type PostgresAccommodationStore struct {
	Conn *pgxpool.Pool
}

// Upsert implements the projection.Store interface.
func (s PostgresAccommodationStore) Upsert(ctx context.Context, a Accommodation) error {
	if _, err := s.Conn.Exec(
		ctx,
		`INSERT INTO sleeping_accommodation_read_models (`+accommodationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			max_capacity = EXCLUDED.max_capacity,
			is_active = EXCLUDED.is_active,
			created_at = EXCLUDED.created_at,
			changed_at = EXCLUDED.changed_at,
			last_event_version = EXCLUDED.last_event_version
		WHERE sleeping_accommodation_read_models.last_event_version <= EXCLUDED.last_event_version`,
		a.ID, a.Name, string(a.Type), a.MaxCapacity, a.IsActive, a.CreatedAt, a.ChangedAt, int64(a.LastEventVersion),
	); err != nil {
		return fmt.Errorf("readmodel.PostgresAccommodationStore: failed to upsert accommodation, %w", err)
	}

	return nil
}

// List returns the Sleeping Accommodations ordered by name,
// only the active ones if activeOnly is true.
func (s PostgresAccommodationStore) List(ctx context.Context, activeOnly bool) ([]Accommodation, error) {
	rows, err := s.Conn.Query(
		ctx,
		`SELECT `+accommodationColumns+` FROM sleeping_accommodation_read_models
		WHERE is_active OR NOT $1
		ORDER BY name, id`,
		activeOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("readmodel.PostgresAccommodationStore: failed to query accommodations, %w", err)
	}

	accommodations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Accommodation, error) {
		var (
			a                Accommodation
			kind             string
			lastEventVersion int64
		)

		if err := row.Scan(
			&a.ID, &a.Name, &kind, &a.MaxCapacity, &a.IsActive, &a.CreatedAt, &a.ChangedAt, &lastEventVersion,
		); err != nil {
			return Accommodation{}, err
		}

		a.Type = accommodation.Kind(kind)
		a.LastEventVersion = version.Version(lastEventVersion)
		a.CreatedAt = a.CreatedAt.UTC()
		a.ChangedAt = utcPtr(a.ChangedAt)

		return a, nil
	})
	if err != nil {
		return nil, fmt.Errorf("readmodel.PostgresAccommodationStore: failed to scan accommodations, %w", err)
	}

	return accommodations, nil
}

// PostgresUserDirectory resolves users from the "users" table.
type PostgresUserDirectory struct {
	Conn *pgxpool.Pool
}

// LookupUser implements the UserDirectory interface.
func (d PostgresUserDirectory) LookupUser(ctx context.Context, id int) (User, error) {
	user := User{ID: id}

	err := d.Conn.QueryRow(
		ctx,
		`SELECT first_name, last_name, email FROM users WHERE id = $1`,
		id,
	).Scan(&user.FirstName, &user.LastName, &user.Email)

	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("readmodel.PostgresUserDirectory: %w, id %d", ErrUserNotFound, id)
	}

	if err != nil {
		return User{}, fmt.Errorf("readmodel.PostgresUserDirectory: failed to query user, %w", err)
	}

	return user, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	v := t.UTC()

	return &v
}
