package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/cache"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/repository"
)

type fakeVehicleRepo struct {
	mu        sync.Mutex
	vehicles  map[string]domain.Vehicle
	nextID    int
	createErr error
	findErr   error
	creates   int
	// afterFind runs once FindByPlate has read its result, outside the lock.
	afterFind func()
}

func newFakeVehicleRepo(vehicles ...domain.Vehicle) *fakeVehicleRepo {
	r := &fakeVehicleRepo{vehicles: map[string]domain.Vehicle{}, nextID: 1}
	for _, v := range vehicles {
		v.ID = r.nextID
		r.nextID++
		r.vehicles[v.PlateNumber] = v
	}
	return r
}

func (r *fakeVehicleRepo) Create(_ context.Context, v *domain.Vehicle) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.vehicles[v.PlateNumber]; ok {
		return nil, repository.ErrDuplicateEntry
	}
	v.ID = r.nextID
	r.nextID++
	v.AddedAt = time.Now().UTC()
	v.UpdatedAt = v.AddedAt
	r.vehicles[v.PlateNumber] = *v
	return v, nil
}

func (r *fakeVehicleRepo) FindByPlate(_ context.Context, plateNumber string) (*domain.Vehicle, error) {
	r.mu.Lock()
	findErr := r.findErr
	v, ok := r.vehicles[plateNumber]
	hook := r.afterFind
	r.afterFind = nil
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	if findErr != nil {
		return nil, findErr
	}
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r *fakeVehicleRepo) FindAll(_ context.Context, filter domain.VehicleFilterDTO) ([]domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Vehicle{}
	for _, v := range r.vehicles {
		if filter.Prefix != nil && v.Prefix != *filter.Prefix {
			continue
		}
		out = append(out, v)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeVehicleRepo) UpdateAuthorization(_ context.Context, plateNumber string, isAuthorized bool, notes string) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[plateNumber]
	if !ok {
		return nil, repository.ErrNotFound
	}
	v.IsAuthorized = isAuthorized
	if notes != "" {
		v.Notes.SetValid(notes)
	}
	r.vehicles[plateNumber] = v
	return &v, nil
}

func (r *fakeVehicleRepo) Delete(_ context.Context, plateNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[plateNumber]; !ok {
		return repository.ErrNotFound
	}
	delete(r.vehicles, plateNumber)
	return nil
}

type fakeGateEventRepo struct {
	mu       sync.Mutex
	events   map[string]domain.GateEventRecord
	nextID   int
	expired  int
	expireAt time.Time
}

func newFakeGateEventRepo() *fakeGateEventRepo {
	return &fakeGateEventRepo{events: map[string]domain.GateEventRecord{}, nextID: 1}
}

func (r *fakeGateEventRepo) Create(_ context.Context, e *domain.GateEventRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[e.EventID]; ok {
		return repository.ErrDuplicateEntry
	}
	e.ID = r.nextID
	r.nextID++
	r.events[e.EventID] = *e
	return nil
}

func (r *fakeGateEventRepo) FindByEventID(_ context.Context, eventID string) (*domain.GateEventRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *fakeGateEventRepo) UpdateDecision(_ context.Context, e *domain.GateEventRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[e.EventID]; !ok {
		return repository.ErrNotFound
	}
	r.events[e.EventID] = *e
	return nil
}

func (r *fakeGateEventRepo) UpdateStatus(_ context.Context, eventID string, status domain.GateEventStatus, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	e.Status = status
	e.ProcessingNotes = appendNote(e.ProcessingNotes, notes)
	r.events[eventID] = e
	return nil
}

func (r *fakeGateEventRepo) FindPending(_ context.Context, limit int) ([]domain.GateEventRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.GateEventRecord{}
	for _, e := range r.events {
		if e.Status == domain.StatusPending || e.Status == domain.StatusAwaitingReview {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeGateEventRepo) ExpirePending(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireAt = now
	n := 0
	for id, e := range r.events {
		if (e.Status == domain.StatusPending || e.Status == domain.StatusAwaitingReview) &&
			e.ExpiresAt != nil && e.ExpiresAt.Before(now) {
			e.Status = domain.StatusTimeout
			r.events[id] = e
			n++
		}
	}
	r.expired += n
	return n, nil
}

type fakeEventLogRepo struct {
	mu      sync.Mutex
	entries []domain.DeviceEventLog
}

func (r *fakeEventLogRepo) Create(_ context.Context, e *domain.DeviceEventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, *e)
	return nil
}

type publishedCommand struct {
	direction domain.GateDirection
	payload   domain.BarrierCommandPayload
}

type fakePublisher struct {
	mu       sync.Mutex
	commands []publishedCommand
	err      error
}

func (p *fakePublisher) PublishBarrierCommand(_ context.Context, direction domain.GateDirection, payload domain.BarrierCommandPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.commands = append(p.commands, publishedCommand{direction: direction, payload: payload})
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []domain.GateEventNotification
}

func (n *fakeNotifier) BroadcastGateEvent(e domain.GateEventNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

type fakeCache struct {
	vehicles    map[string]domain.Vehicle
	generations map[string]int64
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{vehicles: map[string]domain.Vehicle{}, generations: map[string]int64{}}
}

func (c *fakeCache) Get(_ context.Context, plateNumber string) (*domain.Vehicle, bool, error) {
	v, ok := c.vehicles[plateNumber]
	if !ok {
		return nil, false, nil
	}
	return &v, true, nil
}

func (c *fakeCache) Generation(_ context.Context, plateNumber string) (int64, error) {
	return c.generations[plateNumber], nil
}

func (c *fakeCache) Set(_ context.Context, v *domain.Vehicle, generation int64) error {
	if c.generations[v.PlateNumber] != generation {
		return cache.ErrStaleEntry
	}
	c.vehicles[v.PlateNumber] = *v
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, plateNumber string) error {
	c.generations[plateNumber]++
	delete(c.vehicles, plateNumber)
	c.invalidated = append(c.invalidated, plateNumber)
	return nil
}

type fakeDetector struct {
	output *rekognition.DetectTextOutput
	err    error
	calls  int
}

func (d *fakeDetector) DetectText(_ context.Context, params *rekognition.DetectTextInput, _ ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error) {
	d.calls++
	if params.Image == nil || len(params.Image.Bytes) == 0 {
		return nil, errors.New("empty image")
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.output, nil
}

type fakeUserRepo struct {
	users  map[string]domain.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]domain.User{}, nextID: 1}
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if _, ok := r.users[u.Username]; ok {
		return nil, repository.ErrDuplicateEntry
	}
	u.ID = r.nextID
	r.nextID++
	r.users[u.Username] = *u
	return u, nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}
