package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/repository"
)

const gateEventColumns = `id, event_id, device_id, gate_direction, status, raw_text, detected_plate, plate_category,
	rejection_kind, lpr_confidence, decision, vehicle_id, is_manual_entry, processing_notes, assigned_operator,
	created_at, updated_at, expires_at, completed_at`

type pgGateEventRepository struct {
	db *sql.DB
}

func NewPgGateEventRepository(db *sql.DB) repository.GateEventRepository {
	return &pgGateEventRepository{db: db}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloat(f *float32) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: float64(*f), Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func scanGateEvent(row rowScanner) (*domain.GateEventRecord, error) {
	event := &domain.GateEventRecord{}
	var detectedPlate, plateCategory, rejectionKind, decision, notes, operator sql.NullString
	var confidence sql.NullFloat64
	var vehicleID sql.NullInt64
	var expiresAt, completedAt sql.NullTime

	err := row.Scan(
		&event.ID, &event.EventID, &event.DeviceID, &event.GateDirection, &event.Status, &event.RawText,
		&detectedPlate, &plateCategory, &rejectionKind, &confidence, &decision, &vehicleID,
		&event.IsManualEntry, &notes, &operator,
		&event.CreatedAt, &event.UpdatedAt, &expiresAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	event.DetectedPlate = detectedPlate.String
	event.PlateCategory = plateCategory.String
	event.RejectionKind = rejectionKind.String
	event.Decision = domain.GateDecision(decision.String)
	event.ProcessingNotes = notes.String
	event.AssignedOperator = operator.String
	if confidence.Valid {
		c := float32(confidence.Float64)
		event.LPRConfidence = &c
	}
	if vehicleID.Valid {
		id := int(vehicleID.Int64)
		event.VehicleID = &id
	}
	if expiresAt.Valid {
		t := expiresAt.Time.In(time.UTC)
		event.ExpiresAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time.In(time.UTC)
		event.CompletedAt = &t
	}
	event.CreatedAt = event.CreatedAt.In(time.UTC)
	event.UpdatedAt = event.UpdatedAt.In(time.UTC)
	return event, nil
}

func (r *pgGateEventRepository) Create(ctx context.Context, event *domain.GateEventRecord) error {
	query := `INSERT INTO gate_events
		(event_id, device_id, gate_direction, status, raw_text, lpr_confidence, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		event.EventID, event.DeviceID, event.GateDirection, event.Status, event.RawText,
		nullFloat(event.LPRConfidence), nullTime(event.ExpiresAt),
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: gate event %s", repository.ErrDuplicateEntry, event.EventID)
		}
		return fmt.Errorf("GateEventRepository.Create: %w", err)
	}

	event.CreatedAt = event.CreatedAt.In(time.UTC)
	event.UpdatedAt = event.UpdatedAt.In(time.UTC)
	return nil
}

func (r *pgGateEventRepository) FindByEventID(ctx context.Context, eventID string) (*domain.GateEventRecord, error) {
	query := `SELECT ` + gateEventColumns + ` FROM gate_events WHERE event_id = $1`
	event, err := scanGateEvent(r.db.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("GateEventRepository.FindByEventID: %w", err)
	}
	return event, nil
}

// UpdateDecision writes the outcome fields of event (plate, decision, status, vehicle).
func (r *pgGateEventRepository) UpdateDecision(ctx context.Context, event *domain.GateEventRecord) error {
	query := `UPDATE gate_events
		SET status = $1, detected_plate = $2, plate_category = $3, rejection_kind = $4, lpr_confidence = $5,
		    decision = $6, vehicle_id = $7, is_manual_entry = $8, assigned_operator = $9,
		    processing_notes = $10, completed_at = $11, updated_at = CURRENT_TIMESTAMP
		WHERE event_id = $12
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		event.Status, nullString(event.DetectedPlate), nullString(event.PlateCategory), nullString(event.RejectionKind),
		nullFloat(event.LPRConfidence), nullString(string(event.Decision)), nullInt(event.VehicleID),
		event.IsManualEntry, nullString(event.AssignedOperator), nullString(event.ProcessingNotes),
		nullTime(event.CompletedAt), event.EventID,
	).Scan(&event.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("GateEventRepository.UpdateDecision: %w", err)
	}
	event.UpdatedAt = event.UpdatedAt.In(time.UTC)
	return nil
}

func (r *pgGateEventRepository) UpdateStatus(ctx context.Context, eventID string, status domain.GateEventStatus, notes string) error {
	query := `UPDATE gate_events
		SET status = $1, processing_notes = COALESCE(processing_notes, '') || $2, updated_at = CURRENT_TIMESTAMP
		WHERE event_id = $3`

	notesToAppend := ""
	if notes != "" {
		notesToAppend = "; " + notes
	}

	result, err := r.db.ExecContext(ctx, query, status, notesToAppend, eventID)
	if err != nil {
		return fmt.Errorf("GateEventRepository.UpdateStatus: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("GateEventRepository.UpdateStatus (checking rows): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgGateEventRepository) FindPending(ctx context.Context, limit int) ([]domain.GateEventRecord, error) {
	query := `SELECT ` + gateEventColumns + ` FROM gate_events
		WHERE status IN ('pending', 'awaiting_review')
		ORDER BY created_at ASC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("GateEventRepository.FindPending: %w", err)
	}
	defer rows.Close()

	events := []domain.GateEventRecord{}
	for rows.Next() {
		event, err := scanGateEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("GateEventRepository.FindPending (scanning): %w", err)
		}
		events = append(events, *event)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("GateEventRepository.FindPending (rows error): %w", err)
	}
	return events, nil
}

func (r *pgGateEventRepository) ExpirePending(ctx context.Context, now time.Time) (int, error) {
	query := `UPDATE gate_events
		SET status = 'timeout', completed_at = $1, updated_at = CURRENT_TIMESTAMP
		WHERE status IN ('pending', 'awaiting_review') AND expires_at < $1`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("GateEventRepository.ExpirePending: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("GateEventRepository.ExpirePending (checking rows): %w", err)
	}
	return int(n), nil
}
