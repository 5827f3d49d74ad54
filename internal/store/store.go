// Package store persists consultation history.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/meditrek/internal/model"
)

// Supported drivers.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultListLimit caps ListConsultations when no limit is given.
const DefaultListLimit = 50

// ErrNotFound is returned when a consultation does not exist.
var ErrNotFound = eris.New("store: consultation not found")

// ConsultationFilter specifies criteria for listing consultations.
type ConsultationFilter struct {
	Mode   model.QueryMode          `json:"mode,omitempty"`
	Status model.ConsultationStatus `json:"status,omitempty"`
	Since  time.Time                `json:"since,omitempty"`
	Limit  int                      `json:"limit,omitempty"`
	Offset int                      `json:"offset,omitempty"`
}

func (f ConsultationFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for consultation history.
type Store interface {
	SaveConsultation(ctx context.Context, c *model.Consultation) error
	GetConsultation(ctx context.Context, id string) (*model.Consultation, error)
	ListConsultations(ctx context.Context, filter ConsultationFilter) ([]model.Consultation, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the configured driver and runs migrations. The "none"
// driver (or an empty one) returns a nil Store and no error.
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch driver {
	case "", DriverNone:
		return nil, nil
	case DriverSQLite:
		if dsn == "" {
			dsn = "meditrek.db"
		}
		st, err = NewSQLite(dsn)
	case DriverPostgres:
		st, err = NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// prepare fills the ID and timestamp of a consultation about to be saved.
func prepare(c *model.Consultation, newID func() string) {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.CreatedAt = c.CreatedAt.UTC().Truncate(time.Millisecond)
}
