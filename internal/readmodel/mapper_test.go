package readmodel_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/booking/internal/domain/accommodation"
	"github.com/get-eventually/booking/internal/domain/booking"
	"github.com/get-eventually/booking/internal/readmodel"
	"github.com/get-eventually/booking/logger"
	"github.com/get-eventually/booking/version"
)

var (
	now   = time.Now().UTC().Truncate(time.Millisecond)
	today = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
)

func newBooking(t *testing.T, userID int, startIn, nights int, items ...booking.Item) *booking.Booking {
	t.Helper()

	if len(items) == 0 {
		items = []booking.Item{{AccommodationID: uuid.New(), PersonCount: 2}}
	}

	start := today.AddDate(0, 0, startIn)

	b, err := booking.Create(booking.ID(uuid.New()), userID, start, start.AddDate(0, 0, nights), items, nil, now)
	require.NoError(t, err)

	return b
}

func TestBookingMapper(t *testing.T) {
	ctx := context.Background()
	users := readmodel.NewInMemoryUserDirectory(readmodel.User{
		ID:        1,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
	})

	mapper := readmodel.NewBookingMapper(users, logger.NewTest(t))

	t.Run("owner display data is resolved", func(t *testing.T) {
		b := newBooking(t, 1, 1, 3,
			booking.Item{AccommodationID: uuid.New(), PersonCount: 2},
			booking.Item{AccommodationID: uuid.New(), PersonCount: 3},
		)

		model, err := mapper.Map(ctx, b)
		require.NoError(t, err)

		assert.Equal(t, uuid.UUID(b.AggregateID()), model.ID)
		assert.Equal(t, "Ada Lovelace", model.UserName)
		assert.Equal(t, "ada@example.com", model.UserEmail)
		assert.Equal(t, booking.StatusPending, model.Status)
		assert.Equal(t, 5, model.TotalPersons)
		assert.Equal(t, 3, model.NumberOfNights)
		assert.Len(t, model.Items, 2)
		assert.Equal(t, now, model.CreatedAt)
		assert.Nil(t, model.ChangedAt)
		assert.Equal(t, version.Empty, model.LastEventVersion)
	})

	t.Run("unknown owners fall back to placeholder display data", func(t *testing.T) {
		model, err := mapper.Map(ctx, newBooking(t, 99, 1, 2))
		require.NoError(t, err)

		assert.Equal(t, readmodel.UnknownUserName, model.UserName)
		assert.Equal(t, readmodel.UnknownUserEmail, model.UserEmail)
	})

	t.Run("display name is trimmed", func(t *testing.T) {
		assert.Equal(t, "Ada", readmodel.User{FirstName: "Ada"}.DisplayName())
		assert.Equal(t, "Lovelace", readmodel.User{LastName: "Lovelace"}.DisplayName())
	})
}

func TestMapAccommodation(t *testing.T) {
	a, err := accommodation.Create(accommodation.ID(uuid.New()), "Blue room", accommodation.Room, 4, now)
	require.NoError(t, err)
	require.NoError(t, a.Deactivate(now.Add(time.Hour)))

	model, err := readmodel.MapAccommodation(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, "Blue room", model.Name)
	assert.Equal(t, accommodation.Room, model.Type)
	assert.Equal(t, 4, model.MaxCapacity)
	assert.False(t, model.IsActive)
	require.NotNil(t, model.ChangedAt)
	assert.Equal(t, now.Add(time.Hour), *model.ChangedAt)
}
