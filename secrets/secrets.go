package secrets

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"StoryForge-server/logger"
	"StoryForge-server/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotSet means neither the secret table nor the environment holds a value.
var ErrNotSet = errors.New("secret not set")

// Store resolves named credentials. A row in the secret table wins over the
// process environment.
type Store struct {
	db     *gorm.DB
	log    *logger.Logger
	getenv func(string) string
}

func NewStore(db *gorm.DB, baseLog *logger.Logger) *Store {
	return &Store{db: db, log: baseLog.With("component", "secrets"), getenv: os.Getenv}
}

func (s *Store) Lookup(ctx context.Context, name string) (string, error) {
	if s.db != nil {
		var row models.Secret
		err := s.db.WithContext(ctx).First(&row, "name = ?", name).Error
		switch {
		case err == nil && strings.TrimSpace(row.Value) != "":
			return row.Value, nil
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			s.log.Warn("secret lookup failed, falling back to environment", "name", name, "error", err)
		}
	}
	if v := strings.TrimSpace(s.getenv(name)); v != "" {
		return v, nil
	}
	return "", ErrNotSet
}

// Put stores or replaces a named secret.
func (s *Store) Put(ctx context.Context, name, value string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("secret name is required")
	}
	row := models.Secret{Name: name, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return err
	}
	s.log.Info("secret stored", "name", name)
	return nil
}
