package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/repository"
)

const vehicleColumns = `id, plate_number, category, prefix, number, suffix, is_authorized, source, notes, added_at, updated_at`

type pgVehicleRepository struct {
	db *sql.DB
}

func NewPgVehicleRepository(db *sql.DB) repository.VehicleRepository {
	return &pgVehicleRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	v := &domain.Vehicle{}
	err := row.Scan(&v.ID, &v.PlateNumber, &v.Category, &v.Prefix, &v.Number, &v.Suffix,
		&v.IsAuthorized, &v.Source, &v.Notes, &v.AddedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.AddedAt = v.AddedAt.In(time.UTC)
	v.UpdatedAt = v.UpdatedAt.In(time.UTC)
	return v, nil
}

func (r *pgVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	query := `INSERT INTO vehicles (plate_number, category, prefix, number, suffix, is_authorized, source, notes, added_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, added_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		vehicle.PlateNumber, vehicle.Category, vehicle.Prefix, vehicle.Number, vehicle.Suffix,
		vehicle.IsAuthorized, vehicle.Source, vehicle.Notes,
	).Scan(&vehicle.ID, &vehicle.AddedAt, &vehicle.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "vehicles_plate_number_key") {
			return nil, fmt.Errorf("%w: plate %s", repository.ErrDuplicateEntry, vehicle.PlateNumber)
		}
		return nil, fmt.Errorf("VehicleRepository.Create: %w", err)
	}
	vehicle.AddedAt = vehicle.AddedAt.In(time.UTC)
	vehicle.UpdatedAt = vehicle.UpdatedAt.In(time.UTC)
	return vehicle, nil
}

func (r *pgVehicleRepository) FindByPlate(ctx context.Context, plateNumber string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE plate_number = $1`
	v, err := scanVehicle(r.db.QueryRowContext(ctx, query, plateNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.FindByPlate: %w", err)
	}
	return v, nil
}

func (r *pgVehicleRepository) FindAll(ctx context.Context, filter domain.VehicleFilterDTO) ([]domain.Vehicle, error) {
	var conds []string
	var args []any
	if filter.Category != nil {
		args = append(args, *filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Prefix != nil {
		args = append(args, strings.ToUpper(*filter.Prefix))
		conds = append(conds, fmt.Sprintf("prefix = $%d", len(args)))
	}
	if filter.IsAuthorized != nil {
		args = append(args, *filter.IsAuthorized)
		conds = append(conds, fmt.Sprintf("is_authorized = $%d", len(args)))
	}

	query := `SELECT ` + vehicleColumns + ` FROM vehicles`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY plate_number`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("VehicleRepository.FindAll: %w", err)
	}
	defer rows.Close()

	vehicles := []domain.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("VehicleRepository.FindAll (scanning row): %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("VehicleRepository.FindAll (rows error): %w", err)
	}
	return vehicles, nil
}

func (r *pgVehicleRepository) UpdateAuthorization(ctx context.Context, plateNumber string, isAuthorized bool, notes string) (*domain.Vehicle, error) {
	query := `UPDATE vehicles
	           SET is_authorized = $1, notes = COALESCE(NULLIF($2, ''), notes), updated_at = CURRENT_TIMESTAMP
	           WHERE plate_number = $3
	           RETURNING ` + vehicleColumns
	v, err := scanVehicle(r.db.QueryRowContext(ctx, query, isAuthorized, notes, plateNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.UpdateAuthorization: %w", err)
	}
	return v, nil
}

func (r *pgVehicleRepository) Delete(ctx context.Context, plateNumber string) error {
	query := `DELETE FROM vehicles WHERE plate_number = $1`
	result, err := r.db.ExecContext(ctx, query, plateNumber)
	if err != nil {
		return fmt.Errorf("VehicleRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("VehicleRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
