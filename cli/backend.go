// ABOUTME: Opens the configured pipeline store for CLI commands
// ABOUTME: Chooses sqlite or charm KV and adds move notifications when redis is configured
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/charm"
	"github.com/harperreed/pipeboard/config"
	"github.com/harperreed/pipeboard/db"
	"github.com/harperreed/pipeboard/models"
	"github.com/harperreed/pipeboard/notify"
)

// stdout is where commands print their results.
var stdout io.Writer = os.Stdout

// Store is everything the CLI needs from a backend.
type Store interface {
	board.Catalog
	db.SeedTarget
	GetDeal(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	DeleteDeal(ctx context.Context, id uuid.UUID) error
}

var (
	_ Store = (*db.Store)(nil)
	_ Store = (*charm.Store)(nil)
)

// Backend is an opened store. Catalog is Store wrapped with a move publisher
// when notifications are enabled, so board moves should go through it.
type Backend struct {
	Store   Store
	Catalog board.Catalog

	Publisher *notify.Publisher
	Redis     *redis.Client

	closers []func() error
}

func OpenBackend(ctx context.Context, cfg config.Config) (*Backend, error) {
	be := &Backend{}

	switch cfg.Backend {
	case config.BackendCharm:
		client, err := charm.GetClient()
		if err != nil {
			return nil, fmt.Errorf("failed to open charm store: %w", err)
		}
		be.Store = charm.NewStore(client)
		log.WithField("host", client.Config().Host).Debug("using charm backend")
	default:
		database, err := db.OpenDatabase(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		be.Store = db.NewStore(database)
		be.closers = append(be.closers, database.Close)
		log.WithField("path", cfg.DBPath).Debug("using sqlite backend")
	}
	be.Catalog = be.Store

	if cfg.RedisURL != "" {
		rc, err := notify.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("board notifications disabled")
			return be, nil
		}
		be.Redis = rc
		be.Publisher = notify.NewPublisher(rc, notify.DefaultChannel, sessionID())
		be.Catalog = notify.NewStore(be.Store, be.Publisher)
		be.closers = append(be.closers, rc.Close)
	}
	return be, nil
}

func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

func sessionID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "pipeboard"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}
