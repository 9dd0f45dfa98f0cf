package eventuallyfirestore_test

import (
	"context"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/gcloud"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	eventuallyfirestore "github.com/get-eventually/booking/firestore"
	"github.com/get-eventually/booking/internal/storetest"
)

const projectID = "booking-test"

type emulatorCreds struct{}

func (emulatorCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer owner"}, nil
}

func (emulatorCreds) RequireTransportSecurity() bool { return false }

func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()

	ctx := context.Background()

	container, err := gcloud.RunFirestore(
		ctx,
		"gcr.io/google.com/cloudsdktool/cloud-sdk:367.0.0-emulators",
		gcloud.WithProjectID(projectID),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, container.Terminate(context.Background()))
	})

	conn, err := grpc.NewClient(
		container.URI,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(emulatorCreds{}),
	)
	require.NoError(t, err)

	client, err := firestore.NewClient(ctx, projectID, option.WithGRPCConn(conn))
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestStores(t *testing.T) {
	if testing.Short() {
		t.Skip("firestore emulator tests are skipped in short mode")
	}

	client := newEmulatorClient(t)

	t.Run("event store", storetest.EventStoreSuite(eventuallyfirestore.EventStore{
		Client: client,
		Serde:  storetest.Registry(t),
	}))

	t.Run("snapshot store", storetest.SnapshotStoreSuite(eventuallyfirestore.SnapshotStore{Client: client}))
}
