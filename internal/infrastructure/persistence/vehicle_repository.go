package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/movr/backend/internal/domain/fleet"
	"github.com/movr/backend/internal/domain/shared"
	"github.com/movr/backend/internal/infrastructure/persistence/models"
)

// GormVehicleRepository implements VehicleRepository using GORM
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// FindByID finds a vehicle by its ID
func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Vehicle, error) {
	var model models.VehicleModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// List returns at most limit vehicles, newest first
func (r *GormVehicleRepository) List(ctx context.Context, limit int) ([]fleet.Vehicle, error) {
	var rows []models.VehicleModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	vehicles := make([]fleet.Vehicle, len(rows))
	for i := range rows {
		vehicles[i] = *rows[i].ToDomain()
	}
	return vehicles, nil
}

// Create inserts a new vehicle
func (r *GormVehicleRepository) Create(ctx context.Context, v *fleet.Vehicle) error {
	model := &models.VehicleModel{}
	model.FromDomain(v)
	return translate(r.db.WithContext(ctx).Create(model).Error)
}

// SaveTransition writes the mutable columns of v guarded by the in_use
// value read earlier in the unit of work.
func (r *GormVehicleRepository) SaveTransition(ctx context.Context, v *fleet.Vehicle, wasInUse bool) error {
	model := &models.VehicleModel{}
	model.FromDomain(v)

	result := r.db.WithContext(ctx).
		Model(&models.VehicleModel{}).
		Where("id = ? AND in_use = ?", v.ID, wasInUse).
		Updates(map[string]any{
			"in_use":         model.InUse,
			"battery":        model.Battery,
			"last_latitude":  model.LastLatitude,
			"last_longitude": model.LastLongitude,
			"last_seen_at":   model.LastSeenAt,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missingOrConflict(ctx, v.ID)
	}
	return nil
}

// DeleteIdle removes an idle vehicle and its location history
func (r *GormVehicleRepository) DeleteIdle(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	result := db.Where("id = ? AND in_use = ?", id, false).Delete(&models.VehicleModel{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missingOrConflict(ctx, id)
	}
	// The foreign key cascades on PostgreSQL; the explicit delete covers
	// engines that do not enforce it.
	return db.Where("vehicle_id = ?", id).Delete(&models.LocationModel{}).Error
}

// missingOrConflict explains why a guarded write touched no row
func (r *GormVehicleRepository) missingOrConflict(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.VehicleModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConflict
}

// Ensure GormVehicleRepository implements VehicleRepository
var _ fleet.VehicleRepository = (*GormVehicleRepository)(nil)
