package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/movr/backend/internal/domain/fleet"
	"github.com/movr/backend/internal/infrastructure/persistence/models"
)

// GormLocationRepository implements LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// Append inserts a ledger entry. Entries are never updated.
func (r *GormLocationRepository) Append(ctx context.Context, e *fleet.LocationEntry) error {
	model := &models.LocationModel{}
	model.FromDomain(e)
	return translate(r.db.WithContext(ctx).Create(model).Error)
}

// FindLatest returns the newest entry of a vehicle
func (r *GormLocationRepository) FindLatest(ctx context.Context, vehicleID uuid.UUID) (*fleet.LocationEntry, error) {
	var model models.LocationModel
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("ts DESC").
		Take(&model).Error
	if err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindAt returns the entry of a vehicle stamped exactly ts
func (r *GormLocationRepository) FindAt(ctx context.Context, vehicleID uuid.UUID, ts time.Time) (*fleet.LocationEntry, error) {
	var model models.LocationModel
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND ts = ?", vehicleID, ts.UTC()).
		Take(&model).Error
	if err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// ListByVehicle returns the whole history of a vehicle, oldest first
func (r *GormLocationRepository) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]fleet.LocationEntry, error) {
	var rows []models.LocationModel
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("ts ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]fleet.LocationEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, nil
}

// Ensure GormLocationRepository implements LocationRepository
var _ fleet.LocationRepository = (*GormLocationRepository)(nil)
