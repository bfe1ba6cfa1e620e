package database

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

var (
	ErrConnectionTimeout = errors.New("database connection timeout")
	ErrNotConnected      = errors.New("database is not connected")
)

const defaultConnectTimeout = 5 * time.Second

// MongoConfig holds the settings needed to reach MongoDB.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// MongoManager owns the process-wide MongoDB client. Only one physical client
// is kept at a time; Close followed by Connect replaces it.
type MongoManager struct {
	cfg    MongoConfig
	logger *zerolog.Logger

	// sem serializes Connect and Close; waiting for it is bounded by the
	// caller's context and the connect timeout. Readers never take it.
	sem    chan struct{}
	client atomic.Pointer[mongo.Client]
}

// NewMongoManager creates a manager. No connection is made until Connect.
func NewMongoManager(cfg MongoConfig, logger *zerolog.Logger) *MongoManager {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}

	return &MongoManager{
		cfg:    cfg,
		logger: logger,
		sem:    make(chan struct{}, 1),
	}
}

// Connect establishes the connection if it does not exist yet and returns the
// configured database. Concurrent callers wait for the in-flight attempt for
// at most ConnectTimeout, then fail with ErrConnectionTimeout.
func (m *MongoManager) Connect(ctx context.Context) (*mongo.Database, error) {
	if err := m.acquire(ctx); err != nil {
		return nil, err
	}
	defer m.release()

	if client := m.client.Load(); client != nil {
		return client.Database(m.cfg.Database), nil
	}

	client, err := m.connectLocked(ctx)
	if err != nil {
		return nil, err
	}

	return client.Database(m.cfg.Database), nil
}

// Database returns the configured database of the current client. It does not
// wait for an in-flight Connect or Close.
func (m *MongoManager) Database() (*mongo.Database, error) {
	client := m.client.Load()
	if client == nil {
		return nil, ErrNotConnected
	}

	return client.Database(m.cfg.Database), nil
}

// Ping checks that the primary is reachable.
func (m *MongoManager) Ping(ctx context.Context) error {
	db, err := m.Database()
	if err != nil {
		return err
	}

	return db.Client().Ping(ctx, readpref.Primary())
}

// Close disconnects the client. It is safe to call when not connected.
func (m *MongoManager) Close(ctx context.Context) error {
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	client := m.client.Swap(nil)
	if client == nil {
		return nil
	}

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	m.logger.Info().Msg("MongoDB connection closed")

	return nil
}

func (m *MongoManager) connectLocked(ctx context.Context) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().
		ApplyURI(m.cfg.URI).
		SetConnectTimeout(m.cfg.ConnectTimeout).
		SetServerSelectionTimeout(m.cfg.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnectionTimeout, err)
		}
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m.client.Store(client)
	m.logger.Info().Str("database", m.cfg.Database).Msg("connected to MongoDB")

	return client, nil
}

func (m *MongoManager) acquire(ctx context.Context) error {
	timer := time.NewTimer(m.cfg.ConnectTimeout)
	defer timer.Stop()

	select {
	case m.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrConnectionTimeout
	case <-ctx.Done():
		return ErrConnectionTimeout
	}
}

func (m *MongoManager) release() {
	<-m.sem
}
