package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// ErrNotFound indicates no favorite exists for the given id
	ErrNotFound = errors.New("favorite not found")

	// ErrMissingID indicates a record without a primary key
	ErrMissingID = errors.New("favorite id is required")
)

// Store provides durable CRUD over Favorite records, backed by SQLite
// (pure Go driver). The underlying connection is opened lazily on first use
// and shared for the process lifetime; operations may suspend while it
// initializes but never block a thread.
type Store struct {
	path   string
	logger zerolog.Logger

	once    sync.Once
	db      *gorm.DB
	openErr error
}

// NewStore creates a favorites store for the given SQLite path.
// No connection is opened until the first operation.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// conn returns the shared connection, opening it on first use.
func (s *Store) conn() (*gorm.DB, error) {
	s.once.Do(func() {
		db, err := gorm.Open(sqlite.Open(s.path), &gorm.Config{
			Logger: gormlogger.Discard,
		})
		if err != nil {
			s.openErr = fmt.Errorf("open favorites db: %w", err)
			return
		}

		// PRAGMAs
		db.Exec("PRAGMA journal_mode=WAL;")
		db.Exec("PRAGMA synchronous=NORMAL;")
		db.Exec("PRAGMA busy_timeout=5000;")

		if err := db.AutoMigrate(&Favorite{}); err != nil {
			s.openErr = fmt.Errorf("migrate favorites schema: %w", err)
			return
		}

		s.db = db
		s.logger.Debug().Str("path", s.path).Msg("Favorites store opened")
	})
	return s.db, s.openErr
}

// Save upserts a favorite by primary key: re-saving the same id overwrites
// the snapshot. CreatedAt is set on first save and preserved on re-saves.
func (s *Store) Save(ctx context.Context, fav *Favorite) error {
	if fav == nil || fav.ID == "" {
		return ErrMissingID
	}

	db, err := s.conn()
	if err != nil {
		return err
	}

	if fav.CreatedAt.IsZero() {
		fav.CreatedAt = time.Now().UTC()
	}

	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "thumbnail", "category", "area", "tags",
			"instructions", "source", "youtube", "ingredients",
		}),
	}).Create(fav).Error
}

// Get returns the favorite for the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Favorite, error) {
	if id == "" {
		return nil, ErrMissingID
	}

	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var fav Favorite
	if err := db.WithContext(ctx).First(&fav, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &fav, nil
}

// GetAll returns every favorite in key order. Callers needing a different
// order (alphabetical, recent) sort on their side.
func (s *Store) GetAll(ctx context.Context) ([]Favorite, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var favs []Favorite
	if err := db.WithContext(ctx).Order("id").Find(&favs).Error; err != nil {
		return nil, err
	}
	return favs, nil
}

// Remove deletes the favorite for the given id. Removing an absent id is a
// no-op, not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}

	db, err := s.conn()
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Delete(&Favorite{}, "id = ?", id).Error
}

// Exists reports whether a favorite exists for the given id.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Clear deletes every favorite. Administrative operation, rarely used.
func (s *Store) Clear(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Where("1 = 1").Delete(&Favorite{}).Error
}

// Close releases the underlying connection if one was opened.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
