//go:build integration

package sqldb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/warp/circle-engine/circles"
	"github.com/warp/circle-engine/config"
	"github.com/warp/circle-engine/generic"
	"github.com/warp/circle-engine/store/sqldb"
)

// startMySQL runs a throwaway MySQL and returns a config pointing at it.
func startMySQL(t *testing.T) *config.Config {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mysql:8.0",
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "root",
				"MYSQL_DATABASE":      "circleclicker",
				"MYSQL_USER":          "circles",
				"MYSQL_PASSWORD":      "circles",
			},
			// The entrypoint starts a temporary server first; wait for the real one.
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("3306/tcp"),
				wait.ForLog("ready for connections").WithOccurrence(2),
			).WithStartupTimeoutDefault(120 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate MySQL: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	return &config.Config{
		DBType:            "mysql",
		DBHost:            host,
		DBPort:            port.Port(),
		DBName:            "circleclicker",
		DBUser:            "circles",
		DBPassword:        "circles",
		DBConnectionLimit: 5,
	}
}

func TestMySQL_StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := sqldb.Connect(startMySQL(t))
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close(db) })
	store := sqldb.New(db)

	created, err := store.EnsureSchema(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	u, s := createUserWithSave(t, store)
	s.Balance("circles").Set(4e9)
	s.Owned[circles.FactoryID(1)] = 12
	tx := generic.NewTransaction(generic.TxPrestige, s.ID, circles.Squares, 2, "", 0, epoch)
	require.NoError(t, store.SaveChanges(ctx, s, []generic.Transaction{tx}))

	// Unchanged rows still count as a successful write.
	require.NoError(t, store.SaveChanges(ctx, s, nil))
	require.NoError(t, store.SetBulkBuy(ctx, u.ID, generic.DefaultBulkBuy))

	got, err := store.LoadSave(ctx, u.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Balances, got.Balances)
	assert.Equal(t, 12, got.Owned[circles.FactoryID(1)])

	txs, err := store.Transactions(ctx, s.ID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "2", txs[0].Delta.String())

	for i := 1; i < generic.MaxSavesPerUser; i++ {
		_, err := store.CreateSave(ctx, u.ID, epoch)
		require.NoError(t, err)
	}
	_, err = store.CreateSave(ctx, u.ID, epoch)
	assert.ErrorIs(t, err, generic.ErrSaveLimitReached)
}
