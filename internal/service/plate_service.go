package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/guregu/null.v4"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/cache"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/metrics"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/plate"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/repository"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// PlateService owns the authorized plates registry and is the only place
// where raw plate text is turned into a registry key.
type PlateService struct {
	vehicleRepo  repository.VehicleRepository
	cache        cache.PlateCache
	metrics      *metrics.Metrics
	autoPrefixes map[string]struct{}
	logger       zerolog.Logger
}

func NewPlateService(
	vehicleRepo repository.VehicleRepository,
	plateCache cache.PlateCache,
	m *metrics.Metrics,
	autoRegisterPrefixes []string,
	logger zerolog.Logger,
) *PlateService {
	if plateCache == nil {
		plateCache = cache.Noop{}
	}
	prefixes := make(map[string]struct{}, len(autoRegisterPrefixes))
	for _, p := range autoRegisterPrefixes {
		prefixes[strings.ToUpper(p)] = struct{}{}
	}
	return &PlateService{
		vehicleRepo:  vehicleRepo,
		cache:        plateCache,
		metrics:      m,
		autoPrefixes: prefixes,
		logger:       logger.With().Str("component", "plates").Logger(),
	}
}

// validatePlate runs the validator and records the outcome.
func validatePlate(m *metrics.Metrics, raw string) (plate.Plate, error) {
	p, err := plate.Validate(raw)
	if err != nil {
		m.PlateInvalid(string(plate.KindOf(err)))
		return plate.Plate{}, err
	}
	m.PlateValid(string(p.Category()))
	return p, nil
}

func (s *PlateService) Check(raw string) domain.PlateCheckResponse {
	p, err := validatePlate(s.metrics, raw)
	if err != nil {
		return domain.PlateCheckResponse{Rejection: domain.NewPlateRejection(raw, err)}
	}
	return domain.PlateCheckResponse{Valid: true, Plate: domain.NewPlateDTO(p)}
}

func (s *PlateService) RegisterVehicle(ctx context.Context, dto domain.CreateVehicleDTO) (*domain.Vehicle, error) {
	p, err := validatePlate(s.metrics, dto.PlateNumber)
	if err != nil {
		return nil, err
	}

	authorized := true
	if dto.IsAuthorized != nil {
		authorized = *dto.IsAuthorized
	}

	vehicle := newVehicle(p, authorized, domain.VehicleSourceManual)
	vehicle.Notes = null.NewString(dto.Notes, dto.Notes != "")

	created, err := s.vehicleRepo.Create(ctx, vehicle)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, created.PlateNumber)
	s.logger.Info().Str("plate", created.PlateNumber).Bool("authorized", created.IsAuthorized).Msg("vehicle registered")
	return created, nil
}

func newVehicle(p plate.Plate, authorized bool, source string) *domain.Vehicle {
	return &domain.Vehicle{
		PlateNumber:  p.String(),
		Category:     string(p.Category()),
		Prefix:       p.Prefix(),
		Number:       p.Number(),
		Suffix:       p.Suffix(),
		IsAuthorized: authorized,
		Source:       source,
	}
}

// canonical maps user supplied plate text (path params) to the registry key.
func (s *PlateService) canonical(raw string) (string, error) {
	p, err := plate.Validate(raw)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

func (s *PlateService) GetVehicle(ctx context.Context, rawPlate string) (*domain.Vehicle, error) {
	key, err := s.canonical(rawPlate)
	if err != nil {
		return nil, err
	}
	return s.vehicleRepo.FindByPlate(ctx, key)
}

func (s *PlateService) ListVehicles(ctx context.Context, filter domain.VehicleFilterDTO) ([]domain.Vehicle, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.vehicleRepo.FindAll(ctx, filter)
}

func (s *PlateService) SetAuthorization(ctx context.Context, rawPlate string, dto domain.UpdateVehicleAuthorizationDTO) (*domain.Vehicle, error) {
	key, err := s.canonical(rawPlate)
	if err != nil {
		return nil, err
	}
	if dto.IsAuthorized == nil {
		return nil, fmt.Errorf("%w: is_authorized is required", ErrInvalidRequest)
	}
	vehicle, err := s.vehicleRepo.UpdateAuthorization(ctx, key, *dto.IsAuthorized, dto.Notes)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, key)
	s.logger.Info().Str("plate", key).Bool("authorized", vehicle.IsAuthorized).Msg("vehicle authorization changed")
	return vehicle, nil
}

func (s *PlateService) DeleteVehicle(ctx context.Context, rawPlate string) error {
	key, err := s.canonical(rawPlate)
	if err != nil {
		return err
	}
	if err := s.vehicleRepo.Delete(ctx, key); err != nil {
		return err
	}
	s.invalidate(ctx, key)
	s.logger.Info().Str("plate", key).Msg("vehicle removed")
	return nil
}

// Authorize looks p up in the cache, then the registry. Unknown plates whose
// prefix is configured for auto registration are inserted as authorized.
// A nil vehicle with a nil error means the plate is simply not registered.
//
// The cache generation is read before the registry so that a revoke landing
// between the two is never overwritten by the value loaded here.
func (s *PlateService) Authorize(ctx context.Context, p plate.Plate) (*domain.Vehicle, bool, error) {
	key := p.String()

	if v, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("plate", key).Msg("plate cache read failed")
	} else if ok {
		return v, v.IsAuthorized, nil
	}

	generation, genErr := s.cache.Generation(ctx, key)
	if genErr != nil {
		s.logger.Warn().Err(genErr).Str("plate", key).Msg("plate cache generation read failed, not caching")
	}

	vehicle, err := s.vehicleRepo.FindByPlate(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		vehicle, err = s.autoRegister(ctx, p)
		if err != nil {
			return nil, false, err
		}
		if vehicle == nil {
			return nil, false, nil
		}
	default:
		return nil, false, fmt.Errorf("PlateService.Authorize: %w", err)
	}

	if genErr == nil {
		switch err := s.cache.Set(ctx, vehicle, generation); {
		case errors.Is(err, cache.ErrStaleEntry):
			s.logger.Debug().Str("plate", key).Msg("plate changed during lookup, not caching")
		case err != nil:
			s.logger.Warn().Err(err).Str("plate", key).Msg("plate cache write failed")
		}
	}
	return vehicle, vehicle.IsAuthorized, nil
}

func (s *PlateService) autoRegister(ctx context.Context, p plate.Plate) (*domain.Vehicle, error) {
	if _, ok := s.autoPrefixes[p.Prefix()]; !ok {
		return nil, nil
	}

	vehicle := newVehicle(p, true, domain.VehicleSourceAutoPrefix)
	created, err := s.vehicleRepo.Create(ctx, vehicle)
	if errors.Is(err, repository.ErrDuplicateEntry) {
		// another gate registered it first
		return s.vehicleRepo.FindByPlate(ctx, p.String())
	}
	if err != nil {
		return nil, fmt.Errorf("PlateService.autoRegister: %w", err)
	}
	s.logger.Info().Str("plate", created.PlateNumber).Str("prefix", p.Prefix()).Msg("plate auto-registered")
	return created, nil
}

func (s *PlateService) invalidate(ctx context.Context, key string) {
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("plate", key).Msg("plate cache invalidate failed")
	}
}
