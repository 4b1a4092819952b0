package repository

import (
	"context"
	"errors"
	"time"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
}

// VehicleRepository stores the authorized plates registry. Plate numbers are
// always the normalized form produced by the validator.
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
	FindByPlate(ctx context.Context, plateNumber string) (*domain.Vehicle, error)
	FindAll(ctx context.Context, filter domain.VehicleFilterDTO) ([]domain.Vehicle, error)
	UpdateAuthorization(ctx context.Context, plateNumber string, isAuthorized bool, notes string) (*domain.Vehicle, error)
	Delete(ctx context.Context, plateNumber string) error
}

type GateEventRepository interface {
	Create(ctx context.Context, event *domain.GateEventRecord) error
	FindByEventID(ctx context.Context, eventID string) (*domain.GateEventRecord, error)
	UpdateDecision(ctx context.Context, event *domain.GateEventRecord) error
	UpdateStatus(ctx context.Context, eventID string, status domain.GateEventStatus, notes string) error
	FindPending(ctx context.Context, limit int) ([]domain.GateEventRecord, error)
	// ExpirePending moves pending/awaiting_review events past expires_at to timeout.
	ExpirePending(ctx context.Context, now time.Time) (int, error)
}

type DeviceEventsLogRepository interface {
	Create(ctx context.Context, event *domain.DeviceEventLog) error
}
