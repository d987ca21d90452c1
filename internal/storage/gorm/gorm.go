// Package gormstorage implements the storage.Backend interface over GORM,
// backed by SQLite or PostgreSQL.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shipmanifest/extension/internal/model"
	"github.com/shipmanifest/extension/internal/model/convert"
	"github.com/shipmanifest/extension/pkg/core"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger
	// Close releases the connection. Optional.
	Close func() error
}

// Backend implements storage.Backend with one row per crew member.
type Backend struct {
	deps Dependencies
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{deps: deps}
}

// Init makes sure the roster table exists.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("gorm backend: no database")
	}
	if err := b.deps.DB.AutoMigrate(&model.CrewRecord{}); err != nil {
		return fmt.Errorf("gorm backend: migrate: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (b *Backend) Close() error {
	if b.deps.Close != nil {
		return b.deps.Close()
	}
	return nil
}

// Insert adds a new member.
func (b *Backend) Insert(m core.CrewMember) error {
	rec := convert.CrewToRecord(m)
	return b.deps.DB.Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Model(&model.CrewRecord{}).
			Where("crew_id = ? OR name = ?", rec.CrewID, rec.Name).
			Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %q", core.ErrCrewDuplicate, m.Name)
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("insert crew %q: %w", m.Name, err)
		}
		b.deps.Logger.Debug("crew record inserted", "name", m.Name, "id", rec.CrewID)
		return nil
	})
}

// Update replaces the record with the same crew id.
func (b *Backend) Update(m core.CrewMember) error {
	rec := convert.CrewToRecord(m)
	return b.deps.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.CrewRecord
		err := tx.Where("crew_id = ?", rec.CrewID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: id %s", core.ErrCrewNotFound, rec.CrewID)
		}
		if err != nil {
			return err
		}

		var clash int64
		err = tx.Model(&model.CrewRecord{}).
			Where("name = ? AND crew_id <> ?", rec.Name, rec.CrewID).
			Count(&clash).Error
		if err != nil {
			return err
		}
		if clash > 0 {
			return fmt.Errorf("%w: name %q", core.ErrCrewDuplicate, rec.Name)
		}

		rec.Model = existing.Model
		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("update crew %q: %w", m.Name, err)
		}
		return nil
	})
}

// Delete removes the record with the given crew id. Deleting an absent id is not an error.
func (b *Backend) Delete(id uuid.UUID) error {
	err := b.deps.DB.Unscoped().Where("crew_id = ?", id.String()).Delete(&model.CrewRecord{}).Error
	if err != nil {
		return fmt.Errorf("delete crew %s: %w", id, err)
	}
	return nil
}

// List returns every member ordered by name.
func (b *Backend) List() ([]core.CrewMember, error) {
	var recs []model.CrewRecord
	if err := b.deps.DB.Order("name").Find(&recs).Error; err != nil {
		return nil, err
	}
	return convert.RecordsToCrew(recs)
}
