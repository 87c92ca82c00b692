package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/movr/backend/internal/domain/ride"
	"github.com/movr/backend/internal/domain/shared"
	"github.com/movr/backend/internal/infrastructure/persistence/models"
)

// GormRideRepository implements ride.Repository using GORM
type GormRideRepository struct {
	db *gorm.DB
}

// NewGormRideRepository creates a new GormRideRepository
func NewGormRideRepository(db *gorm.DB) *GormRideRepository {
	return &GormRideRepository{db: db}
}

// Create inserts a ride. A second open ride on the same vehicle violates
// the partial unique index and yields CONFLICT.
func (r *GormRideRepository) Create(ctx context.Context, rd *ride.Ride) error {
	model := &models.RideModel{}
	model.FromDomain(rd)
	err := translate(r.db.WithContext(ctx).Create(model).Error)
	if errors.Is(err, shared.ErrAlreadyExists) {
		return shared.ErrConflict
	}
	return err
}

// FindActive returns the open ride of a vehicle for a user
func (r *GormRideRepository) FindActive(ctx context.Context, vehicleID uuid.UUID, userEmail string) (*ride.Ride, error) {
	var model models.RideModel
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND user_email = ? AND end_ts IS NULL", vehicleID, userEmail).
		Take(&model).Error
	if err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// SaveEnd stores the end timestamp of a ride that is still open
func (r *GormRideRepository) SaveEnd(ctx context.Context, rd *ride.Ride) error {
	result := r.db.WithContext(ctx).
		Model(&models.RideModel{}).
		Where("id = ? AND end_ts IS NULL", rd.ID).
		Update("end_ts", rd.EndedAt)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.RideModel{}).Where("id = ?", rd.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConflict
}

// ListByUser returns the user's rides joined with their vehicles. Active
// rides come first, then ended rides by end time and start time, newest first.
func (r *GormRideRepository) ListByUser(ctx context.Context, userEmail string) ([]ride.History, error) {
	var rows []models.RideHistoryRow
	err := r.db.WithContext(ctx).
		Table("rides").
		Select("rides.id, rides.vehicle_id, rides.user_email, rides.start_ts, rides.end_ts, " +
			"vehicles.in_use AS vehicle_in_use, vehicles.vehicle_type AS vehicle_type").
		Joins("JOIN vehicles ON vehicles.id = rides.vehicle_id").
		Where("rides.user_email = ?", userEmail).
		Order("(rides.end_ts IS NULL) DESC, rides.end_ts DESC, rides.start_ts DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	history := make([]ride.History, len(rows))
	for i := range rows {
		history[i] = rows[i].ToDomain()
	}
	return history, nil
}

// CountByVehicle counts every ride taken on a vehicle
func (r *GormRideRepository) CountByVehicle(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RideModel{}).Where("vehicle_id = ?", vehicleID).Count(&count).Error
	return count, err
}

// CountByUser counts every ride taken by a user
func (r *GormRideRepository) CountByUser(ctx context.Context, userEmail string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RideModel{}).Where("user_email = ?", userEmail).Count(&count).Error
	return count, err
}

// Ensure GormRideRepository implements ride.Repository
var _ ride.Repository = (*GormRideRepository)(nil)
