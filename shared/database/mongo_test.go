package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func newTestManager(timeout time.Duration) *MongoManager {
	logger := zerolog.Nop()
	return NewMongoManager(MongoConfig{
		URI:            "mongodb://127.0.0.1:1/?directConnection=true",
		Database:       "athletic_spots_test",
		ConnectTimeout: timeout,
	}, &logger)
}

func TestNewMongoManager_DefaultTimeout(t *testing.T) {
	logger := zerolog.Nop()
	m := NewMongoManager(MongoConfig{URI: "mongodb://localhost"}, &logger)
	assert.Equal(t, defaultConnectTimeout, m.cfg.ConnectTimeout)
}

func TestMongoManager_DatabaseBeforeConnect(t *testing.T) {
	m := newTestManager(time.Second)

	_, err := m.Database()
	assert.ErrorIs(t, err, ErrNotConnected)

	err = m.Ping(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestMongoManager_CloseWhenNotConnected(t *testing.T) {
	m := newTestManager(time.Second)
	assert.NoError(t, m.Close(context.Background()))
}

func TestMongoManager_WaitForInFlightConnectIsBounded(t *testing.T) {
	m := newTestManager(100 * time.Millisecond)

	// Simulate another connect attempt that never finishes.
	m.sem <- struct{}{}
	defer m.release()

	start := time.Now()
	_, err := m.Connect(context.Background())
	require.ErrorIs(t, err, ErrConnectionTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestMongoManager_WaitHonoursContext(t *testing.T) {
	m := newTestManager(time.Minute)

	m.sem <- struct{}{}
	defer m.release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := m.Connect(ctx)
	assert.ErrorIs(t, err, ErrConnectionTimeout)
}

func TestMongoManager_UnreachableServer(t *testing.T) {
	m := newTestManager(200 * time.Millisecond)

	_, err := m.Connect(context.Background())
	require.Error(t, err)

	_, err = m.Database()
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestMongoManager_DatabaseDoesNotWaitForConnectOrClose(t *testing.T) {
	m := newTestManager(time.Second)

	// mongo.Connect does not dial, so no server is needed.
	client, err := mongo.Connect(options.Client().ApplyURI(m.cfg.URI))
	require.NoError(t, err)
	m.client.Store(client)

	// Hold the semaphore as a concurrent Connect or Close would.
	m.sem <- struct{}{}

	const readers = 32
	var wg sync.WaitGroup
	errs := make(chan error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			db, err := m.Database()
			if err == nil && db.Name() != "athletic_spots_test" {
				err = assert.AnError
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	m.release()
	require.NoError(t, m.Close(context.Background()))

	_, err = m.Database()
	assert.ErrorIs(t, err, ErrNotConnected)
}
