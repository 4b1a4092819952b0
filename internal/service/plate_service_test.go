package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/metrics"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/plate"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/repository"
)

func boolPtr(b bool) *bool { return &b }

func mustPlate(t *testing.T, raw string) plate.Plate {
	t.Helper()
	p, err := plate.Validate(raw)
	require.NoError(t, err)
	return p
}

func TestPlateServiceCheck(t *testing.T) {
	svc := NewPlateService(newFakeVehicleRepo(), nil, metrics.New(nil), nil, zerolog.Nop())

	resp := svc.Check("B 767 NTT")
	require.True(t, resp.Valid)
	require.NotNil(t, resp.Plate)
	assert.Nil(t, resp.Rejection)
	assert.Equal(t, "B767NTT", resp.Plate.Plate)
	assert.Equal(t, "regular", resp.Plate.Category)
	assert.Equal(t, "NTT", resp.Plate.Suffix)

	resp = svc.Check("b767ntt")
	assert.False(t, resp.Valid)
	assert.Nil(t, resp.Plate)
	require.NotNil(t, resp.Rejection)
	assert.Equal(t, "lowercase_present", resp.Rejection.ErrorKind)
	assert.Equal(t, "normalize", resp.Rejection.Stage)
	assert.Equal(t, "b767ntt", resp.Rejection.Input)
}

func TestRegisterVehicleStoresNormalizedPlate(t *testing.T) {
	repo := newFakeVehicleRepo()
	c := newFakeCache()
	svc := NewPlateService(repo, c, nil, nil, zerolog.Nop())

	v, err := svc.RegisterVehicle(context.Background(), domain.CreateVehicleDTO{PlateNumber: "CJ 01 ABC", Notes: "visitor"})
	require.NoError(t, err)
	assert.Equal(t, "CJ01ABC", v.PlateNumber)
	assert.Equal(t, "CJ", v.Prefix)
	assert.Equal(t, "01", v.Number)
	assert.True(t, v.IsAuthorized)
	assert.Equal(t, domain.VehicleSourceManual, v.Source)
	assert.Equal(t, "visitor", v.Notes.String)
	assert.Contains(t, c.invalidated, "CJ01ABC")

	_, err = svc.RegisterVehicle(context.Background(), domain.CreateVehicleDTO{PlateNumber: "CJ01ABC"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)
}

func TestRegisterVehicleRejectsInvalidPlate(t *testing.T) {
	repo := newFakeVehicleRepo()
	svc := NewPlateService(repo, nil, nil, nil, zerolog.Nop())

	_, err := svc.RegisterVehicle(context.Background(), domain.CreateVehicleDTO{PlateNumber: "XY 12 ABC"})
	require.Error(t, err)
	assert.ErrorIs(t, err, plate.ErrUnknownPrefix)
	assert.Equal(t, 0, repo.creates)
}

func TestRegisterVehicleUnauthorized(t *testing.T) {
	svc := NewPlateService(newFakeVehicleRepo(), nil, nil, nil, zerolog.Nop())

	v, err := svc.RegisterVehicle(context.Background(), domain.CreateVehicleDTO{PlateNumber: "B767NTT", IsAuthorized: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, v.IsAuthorized)
	assert.False(t, v.Notes.Valid)
}

func TestVehicleLookupsUseCanonicalPlate(t *testing.T) {
	repo := newFakeVehicleRepo(domain.Vehicle{PlateNumber: "B767NTT", Prefix: "B", IsAuthorized: true})
	c := newFakeCache()
	svc := NewPlateService(repo, c, nil, nil, zerolog.Nop())
	ctx := context.Background()

	v, err := svc.GetVehicle(ctx, "B 767 NTT")
	require.NoError(t, err)
	assert.Equal(t, "B767NTT", v.PlateNumber)

	_, err = svc.GetVehicle(ctx, "B 767 nTT")
	assert.True(t, plate.IsValidationError(err))

	v, err = svc.SetAuthorization(ctx, "B767NTT", domain.UpdateVehicleAuthorizationDTO{IsAuthorized: boolPtr(false), Notes: "revoked"})
	require.NoError(t, err)
	assert.False(t, v.IsAuthorized)
	assert.Equal(t, "revoked", v.Notes.String)

	_, err = svc.SetAuthorization(ctx, "B767NTT", domain.UpdateVehicleAuthorizationDTO{})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	require.NoError(t, svc.DeleteVehicle(ctx, "B 767 NTT"))
	assert.ErrorIs(t, svc.DeleteVehicle(ctx, "B767NTT"), repository.ErrNotFound)
	assert.Equal(t, []string{"B767NTT", "B767NTT"}, c.invalidated)
}

func TestListVehiclesClampsLimit(t *testing.T) {
	svc := NewPlateService(newFakeVehicleRepo(), nil, nil, nil, zerolog.Nop())

	vehicles, err := svc.ListVehicles(context.Background(), domain.VehicleFilterDTO{Limit: 10000, Offset: -3})
	require.NoError(t, err)
	assert.Empty(t, vehicles)
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()

	t.Run("registered plate is cached", func(t *testing.T) {
		repo := newFakeVehicleRepo(domain.Vehicle{PlateNumber: "B767NTT", IsAuthorized: true})
		c := newFakeCache()
		svc := NewPlateService(repo, c, nil, nil, zerolog.Nop())

		v, ok, err := svc.Authorize(ctx, mustPlate(t, "B767NTT"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, v.ID)
		assert.Contains(t, c.vehicles, "B767NTT")

		// served from cache even if the database is down
		repo.findErr = errors.New("connection refused")
		_, ok, err = svc.Authorize(ctx, mustPlate(t, "B767NTT"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown plate", func(t *testing.T) {
		svc := NewPlateService(newFakeVehicleRepo(), nil, nil, []string{"MAI"}, zerolog.Nop())

		v, ok, err := svc.Authorize(ctx, mustPlate(t, "TM17NTT"))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("revoked plate", func(t *testing.T) {
		repo := newFakeVehicleRepo(domain.Vehicle{PlateNumber: "TM17NTT", IsAuthorized: false})
		svc := NewPlateService(repo, nil, nil, nil, zerolog.Nop())

		v, ok, err := svc.Authorize(ctx, mustPlate(t, "TM17NTT"))
		require.NoError(t, err)
		assert.False(t, ok)
		require.NotNil(t, v)
	})

	t.Run("auto registered prefix", func(t *testing.T) {
		repo := newFakeVehicleRepo()
		svc := NewPlateService(repo, nil, nil, []string{"mai"}, zerolog.Nop())

		v, ok, err := svc.Authorize(ctx, mustPlate(t, "MAI 153"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, domain.VehicleSourceAutoPrefix, v.Source)
		assert.Equal(t, "special_organization", v.Category)
		assert.Contains(t, repo.vehicles, "MAI153")
	})

	t.Run("revoke during lookup is not cached", func(t *testing.T) {
		repo := newFakeVehicleRepo(domain.Vehicle{PlateNumber: "B767NTT", IsAuthorized: true})
		c := newFakeCache()
		svc := NewPlateService(repo, c, nil, nil, zerolog.Nop())
		repo.afterFind = func() {
			_, err := svc.SetAuthorization(ctx, "B767NTT", domain.UpdateVehicleAuthorizationDTO{IsAuthorized: boolPtr(false)})
			require.NoError(t, err)
		}

		// this read still saw the vehicle as authorized
		_, ok, err := svc.Authorize(ctx, mustPlate(t, "B767NTT"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NotContains(t, c.vehicles, "B767NTT")

		_, ok, err = svc.Authorize(ctx, mustPlate(t, "B767NTT"))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Contains(t, c.vehicles, "B767NTT")
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := newFakeVehicleRepo()
		repo.findErr = errors.New("connection refused")
		svc := NewPlateService(repo, nil, nil, nil, zerolog.Nop())

		_, _, err := svc.Authorize(ctx, mustPlate(t, "B767NTT"))
		assert.ErrorContains(t, err, "connection refused")
	})
}
