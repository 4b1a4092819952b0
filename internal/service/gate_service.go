package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/metrics"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/plate"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/repository"
)

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrEventAlreadyResolved = errors.New("gate event already resolved")
)

const defaultPendingLimit = 50

// BarrierPublisher sends commands to the gate controller.
type BarrierPublisher interface {
	PublishBarrierCommand(ctx context.Context, direction domain.GateDirection, payload domain.BarrierCommandPayload) error
}

// Notifier pushes gate events to connected operator consoles.
type Notifier interface {
	BroadcastGateEvent(event domain.GateEventNotification)
}

type GateService struct {
	plates        *PlateService
	gateEventRepo repository.GateEventRepository
	eventLogRepo  repository.DeviceEventsLogRepository
	publisher     BarrierPublisher
	notifier      Notifier
	metrics       *metrics.Metrics
	threshold     float32
	eventTimeout  time.Duration
	logger        zerolog.Logger
	now           func() time.Time
}

type GateServiceConfig struct {
	// ConfidenceThreshold is the minimum OCR confidence (0-100) for an automatic decision.
	ConfidenceThreshold float32
	EventTimeout        time.Duration
}

func NewGateService(
	plates *PlateService,
	gateEventRepo repository.GateEventRepository,
	eventLogRepo repository.DeviceEventsLogRepository,
	publisher BarrierPublisher,
	notifier Notifier,
	m *metrics.Metrics,
	cfg GateServiceConfig,
	logger zerolog.Logger,
) *GateService {
	return &GateService{
		plates:        plates,
		gateEventRepo: gateEventRepo,
		eventLogRepo:  eventLogRepo,
		publisher:     publisher,
		notifier:      notifier,
		metrics:       m,
		threshold:     cfg.ConfidenceThreshold,
		eventTimeout:  cfg.EventTimeout,
		logger:        logger.With().Str("component", "gate").Logger(),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// HandlePlateRead records a plate read and decides what the barrier does:
//
//   - text that fails validation, or reads below the confidence threshold,
//     goes to manual review;
//   - a valid, authorized plate opens the barrier;
//   - any other valid plate is denied.
//
// Redelivered events (same event_id) return the stored record unchanged once
// it reached a decision. A record left pending or in error by an earlier
// failed attempt is processed again, so a queue retry can still open the gate.
func (s *GateService) HandlePlateRead(ctx context.Context, event domain.PlateReadEvent) (*domain.GateEventRecord, error) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.GateDirection == "" {
		event.GateDirection = domain.GateDirectionEntry
	}
	if event.GateDirection != domain.GateDirectionEntry && event.GateDirection != domain.GateDirectionExit {
		return nil, fmt.Errorf("%w: unknown gate direction %q", ErrInvalidRequest, event.GateDirection)
	}

	expiresAt := s.now().Add(s.eventTimeout)
	confidence := event.Confidence
	record := &domain.GateEventRecord{
		EventID:       event.EventID,
		DeviceID:      event.DeviceID,
		GateDirection: event.GateDirection,
		Status:        domain.StatusPending,
		RawText:       event.RawText,
		LPRConfidence: &confidence,
		ExpiresAt:     &expiresAt,
	}

	if err := s.gateEventRepo.Create(ctx, record); err != nil {
		if !errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, fmt.Errorf("GateService.HandlePlateRead: %w", err)
		}
		stored, err := s.gateEventRepo.FindByEventID(ctx, event.EventID)
		if err != nil {
			return nil, err
		}
		if !retryable(stored.Status) {
			s.logger.Info().Str("event_id", event.EventID).Str("status", string(stored.Status)).Msg("duplicate plate read ignored")
			return stored, nil
		}
		s.logger.Info().Str("event_id", event.EventID).Str("status", string(stored.Status)).Msg("retrying unfinished plate read")
		record = resetForRetry(stored)
	}

	return record, s.decide(ctx, record)
}

// retryable reports whether an earlier attempt stopped before a decision was
// stored and delivered.
func retryable(status domain.GateEventStatus) bool {
	return status == domain.StatusPending || status == domain.StatusError
}

func resetForRetry(stored *domain.GateEventRecord) *domain.GateEventRecord {
	record := *stored
	record.Status = domain.StatusPending
	record.Decision = ""
	record.DetectedPlate = ""
	record.PlateCategory = ""
	record.RejectionKind = ""
	record.VehicleID = nil
	record.CompletedAt = nil
	if stored.ProcessingNotes != "" {
		record.ProcessingNotes = appendNote(stored.ProcessingNotes, "retried")
	}
	return &record
}

// decide validates the read, applies the confidence threshold and the
// registry, and stores the outcome on record.
func (s *GateService) decide(ctx context.Context, record *domain.GateEventRecord) error {
	log := s.logger.With().Str("event_id", record.EventID).Str("device_id", record.DeviceID).Logger()

	var confidence float32
	if record.LPRConfidence != nil {
		confidence = *record.LPRConfidence
	}

	p, err := validatePlate(s.metrics, record.RawText)
	if err != nil {
		rejection := domain.NewPlateRejection(record.RawText, err)
		record.RejectionKind = rejection.ErrorKind
		record.ProcessingNotes = appendNote(record.ProcessingNotes, rejection.Message)
		log.Info().Str("raw_text", record.RawText).Str("kind", rejection.ErrorKind).Msg("plate text rejected")
		return s.finish(ctx, record, domain.DecisionManualReview, nil, rejection)
	}

	record.DetectedPlate = p.String()
	record.PlateCategory = string(p.Category())
	dto := domain.NewPlateDTO(p)

	if confidence < s.threshold {
		record.ProcessingNotes = appendNote(record.ProcessingNotes, fmt.Sprintf("confidence %.1f below threshold %.1f", confidence, s.threshold))
		log.Info().Str("plate", record.DetectedPlate).Float32("confidence", confidence).Msg("low confidence read")
		return s.finish(ctx, record, domain.DecisionManualReview, dto, nil)
	}

	decision, err := s.authorize(ctx, p, record)
	if err != nil {
		record.Status = domain.StatusError
		record.ProcessingNotes = appendNote(record.ProcessingNotes, err.Error())
		if updateErr := s.gateEventRepo.UpdateDecision(ctx, record); updateErr != nil {
			log.Error().Err(updateErr).Msg("could not store failed gate event")
		}
		return err
	}
	return s.finish(ctx, record, decision, dto, nil)
}

func (s *GateService) authorize(ctx context.Context, p plate.Plate, record *domain.GateEventRecord) (domain.GateDecision, error) {
	vehicle, authorized, err := s.plates.Authorize(ctx, p)
	if err != nil {
		return "", err
	}
	if vehicle != nil {
		id := vehicle.ID
		record.VehicleID = &id
	}
	if authorized {
		return domain.DecisionOpen, nil
	}
	return domain.DecisionDeny, nil
}

// finish applies decision to record: opens the barrier when needed, stores
// the outcome and notifies consoles.
func (s *GateService) finish(ctx context.Context, record *domain.GateEventRecord, decision domain.GateDecision, dto *domain.PlateDTO, rejection *domain.PlateRejection) error {
	now := s.now()
	record.Decision = decision

	var publishErr error
	switch decision {
	case domain.DecisionOpen:
		record.Status = domain.StatusGateOpened
		if record.IsManualEntry {
			record.Status = domain.StatusManualOverride
		}
		record.CompletedAt = &now
		publishErr = s.openBarrier(ctx, record)
		if publishErr != nil {
			record.Status = domain.StatusError
			record.ProcessingNotes = appendNote(record.ProcessingNotes, publishErr.Error())
		}
	case domain.DecisionDeny:
		record.Status = domain.StatusDenied
		record.CompletedAt = &now
	case domain.DecisionManualReview:
		record.Status = domain.StatusAwaitingReview
	}

	if err := s.gateEventRepo.UpdateDecision(ctx, record); err != nil {
		return fmt.Errorf("GateService: storing decision: %w", err)
	}

	s.metrics.GateDecision(string(decision))
	s.logger.Info().
		Str("event_id", record.EventID).
		Str("plate", record.DetectedPlate).
		Str("decision", string(decision)).
		Str("status", string(record.Status)).
		Msg("gate decision")

	s.notify(record, dto, rejection)
	return publishErr
}

func (s *GateService) openBarrier(ctx context.Context, record *domain.GateEventRecord) error {
	if s.publisher == nil {
		return nil
	}
	payload := domain.BarrierCommandPayload{
		Command:   domain.BarrierCommandOpen,
		RequestID: uuid.NewString(),
		EventID:   record.EventID,
		Plate:     record.DetectedPlate,
	}
	if err := s.publisher.PublishBarrierCommand(ctx, record.GateDirection, payload); err != nil {
		return fmt.Errorf("publishing barrier command: %w", err)
	}
	return nil
}

func (s *GateService) notify(record *domain.GateEventRecord, dto *domain.PlateDTO, rejection *domain.PlateRejection) {
	if s.notifier == nil {
		return
	}
	var confidence float32
	if record.LPRConfidence != nil {
		confidence = *record.LPRConfidence
	}
	s.notifier.BroadcastGateEvent(domain.GateEventNotification{
		EventID:           record.EventID,
		DeviceID:          record.DeviceID,
		GateDirection:     record.GateDirection,
		Status:            record.Status,
		Decision:          record.Decision,
		RawText:           record.RawText,
		Plate:             dto,
		Rejection:         rejection,
		Confidence:        confidence,
		Timestamp:         s.now(),
		RequiresUserInput: record.Status == domain.StatusAwaitingReview,
		Message:           notificationMessage(record),
	})
}

func notificationMessage(record *domain.GateEventRecord) string {
	switch record.Status {
	case domain.StatusGateOpened, domain.StatusManualOverride:
		return fmt.Sprintf("Barrier opened for %s.", record.DetectedPlate)
	case domain.StatusDenied:
		return fmt.Sprintf("Plate %s is not authorized.", record.DetectedPlate)
	case domain.StatusAwaitingReview:
		return "Plate could not be confirmed, operator input required."
	case domain.StatusError:
		return "Gate event failed: " + record.ProcessingNotes
	}
	return ""
}

// ManualOverride resolves a pending event with plate text typed by an
// operator. With req.OpenGate the barrier opens regardless of the registry;
// otherwise the typed plate goes through the normal authorization.
func (s *GateService) ManualOverride(ctx context.Context, eventID string, req domain.ManualOverrideRequest, operator string) (*domain.GateEventRecord, error) {
	record, err := s.gateEventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if record.Status != domain.StatusPending && record.Status != domain.StatusAwaitingReview {
		return nil, fmt.Errorf("%w: %s is %s", ErrEventAlreadyResolved, eventID, record.Status)
	}

	p, err := validatePlate(s.metrics, req.PlateNumber)
	if err != nil {
		return nil, err
	}

	record.DetectedPlate = p.String()
	record.PlateCategory = string(p.Category())
	record.RejectionKind = ""
	record.IsManualEntry = true
	record.AssignedOperator = operator
	record.ProcessingNotes = appendNote(record.ProcessingNotes, req.Notes)

	decision := domain.DecisionOpen
	if !req.OpenGate {
		decision, err = s.authorize(ctx, p, record)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info().Str("event_id", eventID).Str("operator", operator).Str("plate", record.DetectedPlate).Bool("forced", req.OpenGate).Msg("manual override")
	return record, s.finish(ctx, record, decision, domain.NewPlateDTO(p), nil)
}

func (s *GateService) PendingEvents(ctx context.Context, limit int) ([]domain.GateEventRecord, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultPendingLimit
	}
	return s.gateEventRepo.FindPending(ctx, limit)
}

// ExpireStaleEvents times out events nobody resolved before expires_at.
func (s *GateService) ExpireStaleEvents(ctx context.Context) (int, error) {
	n, err := s.gateEventRepo.ExpirePending(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("GateService.ExpireStaleEvents: %w", err)
	}
	if n > 0 {
		s.logger.Info().Int("expired", n).Msg("stale gate events timed out")
	}
	return n, nil
}

// HandleDeviceMessage decodes one queue message and dispatches it by
// message_type. Malformed messages are logged and dropped so they are not
// redelivered forever; processing failures are returned for a retry.
func (s *GateService) HandleDeviceMessage(ctx context.Context, body string) error {
	entry := &domain.DeviceEventLog{
		ReceivedAt:      s.now(),
		Payload:         json.RawMessage(body),
		ProcessedStatus: "processed",
	}
	defer s.logDeviceEvent(ctx, entry)

	var generic domain.GenericIoTEvent
	if err := json.Unmarshal([]byte(body), &generic); err != nil {
		entry.ProcessedStatus = "error"
		entry.ProcessingNotes = fmt.Sprintf("malformed message: %v", err)
		s.logger.Error().Err(err).Str("body", body).Msg("could not decode device message")
		return nil
	}
	entry.DeviceID = generic.DeviceID
	if entry.DeviceID == "" {
		entry.DeviceID = generic.ClientIDFromIoT
	}
	entry.MqttTopic = generic.ReceivedMqttTopic
	entry.MessageType = generic.MessageType

	var processingErr error
	switch generic.MessageType {
	case domain.MessageTypePlateRead:
		var event domain.PlateReadEvent
		if err := json.Unmarshal([]byte(body), &event); err != nil {
			entry.ProcessedStatus = "error"
			entry.ProcessingNotes = fmt.Sprintf("malformed plate_read: %v", err)
			return nil
		}
		if event.DeviceID == "" {
			event.DeviceID = entry.DeviceID
		}
		record, err := s.HandlePlateRead(ctx, event)
		if record != nil {
			entry.ProcessingNotes = fmt.Sprintf("event %s: %s", record.EventID, record.Status)
		}
		processingErr = err
	case domain.MessageTypeBarrierState:
		var event domain.DeviceBarrierStateEvent
		if err := json.Unmarshal([]byte(body), &event); err == nil {
			s.logger.Info().Str("device_id", entry.DeviceID).Str("barrier", event.BarrierType).Str("state", string(event.BarrierState)).Msg("barrier state")
		}
	case domain.MessageTypeCommandAck:
		var event domain.DeviceCommandAckEvent
		if err := json.Unmarshal([]byte(body), &event); err == nil {
			s.logger.Info().Str("device_id", entry.DeviceID).Str("request_id", event.RequestID).Str("status", event.Status).Msg("command acknowledged")
		}
	default:
		entry.ProcessedStatus = "ignored"
		s.logger.Warn().Str("message_type", generic.MessageType).Msg("unhandled device message type")
	}

	if processingErr != nil {
		entry.ProcessedStatus = "error"
		entry.ProcessingNotes = appendNote(entry.ProcessingNotes, processingErr.Error())
		return processingErr
	}
	return nil
}

func (s *GateService) logDeviceEvent(ctx context.Context, entry *domain.DeviceEventLog) {
	if s.eventLogRepo == nil {
		return
	}
	if err := s.eventLogRepo.Create(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("message_type", entry.MessageType).Msg("could not store device event log")
	}
}

func appendNote(notes, note string) string {
	switch {
	case note == "":
		return notes
	case notes == "":
		return note
	}
	return notes + "; " + note
}
