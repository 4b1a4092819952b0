package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/repository"
)

type pgDeviceEventsLogRepository struct {
	db *sql.DB
}

func NewPgDeviceEventsLogRepository(db *sql.DB) repository.DeviceEventsLogRepository {
	return &pgDeviceEventsLogRepository{db: db}
}

func (r *pgDeviceEventsLogRepository) Create(ctx context.Context, event *domain.DeviceEventLog) error {
	query := `INSERT INTO device_events_log 
                (received_at, device_id, mqtt_topic, message_type, payload, processed_status, processing_notes) 
               VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	// JSONB column: NULL for an empty payload, never invalid JSON
	var payloadToStore any
	if len(event.Payload) > 0 && json.Valid(event.Payload) {
		payloadToStore = []byte(event.Payload)
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		event.ReceivedAt,
		nullString(event.DeviceID),
		nullString(event.MqttTopic),
		nullString(event.MessageType),
		payloadToStore,
		nullString(event.ProcessedStatus),
		nullString(event.ProcessingNotes),
	).Scan(&id)

	if err != nil {
		return fmt.Errorf("DeviceEventsLogRepository.Create: %w", err)
	}
	event.ID = id
	return nil
}
