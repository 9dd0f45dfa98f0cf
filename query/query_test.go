package query_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/booking/logger"
	"github.com/get-eventually/booking/message"
	"github.com/get-eventually/booking/query"
)

type countRooms struct{ ActiveOnly bool }

func (countRooms) Name() string { return "CountRooms" }

var errReadModelDown = errors.New("read model unavailable")

func TestToEnvelope(t *testing.T) {
	t.Run("no metadata", func(t *testing.T) {
		envelope := query.ToEnvelope(countRooms{ActiveOnly: true})

		assert.Equal(t, countRooms{ActiveOnly: true}, envelope.Message)
		assert.Nil(t, envelope.Metadata)
	})

	t.Run("metadata is merged in order", func(t *testing.T) {
		envelope := query.ToEnvelope(countRooms{},
			message.Metadata{"Correlation-Id": "first", "User-Id": "7"},
			message.Metadata{"Correlation-Id": "second"},
		)

		assert.Equal(t, message.Metadata{"Correlation-Id": "second", "User-Id": "7"}, envelope.Metadata)
	})
}

func TestLogged(t *testing.T) {
	ctx := context.Background()

	t.Run("results are passed through", func(t *testing.T) {
		handler := query.Logged[countRooms, int]{
			Handler: query.HandlerFunc[countRooms, int](func(_ context.Context, q query.Envelope[countRooms]) (int, error) {
				if q.Message.ActiveOnly {
					return 2, nil
				}

				return 3, nil
			}),
			Logger: logger.NewTest(t),
		}

		n, err := handler.Handle(ctx, query.ToEnvelope(countRooms{ActiveOnly: true}))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("errors are wrapped with the query name", func(t *testing.T) {
		handler := query.Logged[countRooms, int]{
			Handler: query.HandlerFunc[countRooms, int](func(context.Context, query.Envelope[countRooms]) (int, error) {
				return 0, errReadModelDown
			}),
		}

		_, err := handler.Handle(ctx, query.ToEnvelope(countRooms{}))
		assert.ErrorIs(t, err, errReadModelDown)
		assert.EqualError(t, err, "query.CountRooms: read model unavailable")
	})
}
