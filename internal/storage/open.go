package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	logx "homeworkbot/pkg/logx"
)

// Store is the journal API used by the notifier.
type Store interface {
	AppendDelivery(ctx context.Context, d Delivery) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}

	switch driver {
	case "file":
		return openFile(cfg, log.With(logx.String("comp", "storage.file")))
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log.With(logx.String("comp", "storage.sqlite")))
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}

// normalize fills the id and timestamp when the caller left them empty.
func normalize(d Delivery) Delivery {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.At.IsZero() {
		d.At = time.Now()
	}
	d.At = d.At.UTC()
	return d
}
