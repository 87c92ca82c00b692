package unitofwork

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/movr/backend/internal/domain/fleet"
	"github.com/movr/backend/internal/domain/identity"
	"github.com/movr/backend/internal/domain/ride"
	"github.com/movr/backend/internal/domain/shared"
)

// MemoryScope is an in-process TransactionScope. Units of work run one at
// a time against a private copy of the state, which replaces the shared
// state only when the unit succeeds. It backs service tests and local
// experiments without a database.
type MemoryScope struct {
	mu    sync.Mutex
	state memoryState
}

// NewMemoryScope returns an empty MemoryScope
func NewMemoryScope() *MemoryScope {
	return &MemoryScope{state: memoryState{
		vehicles: map[uuid.UUID]fleet.Vehicle{},
		users:    map[string]identity.User{},
	}}
}

// Execute implements TransactionScope
func (s *MemoryScope) Execute(ctx context.Context, fn func(repos Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(&memoryRepositories{state: &work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

type memoryState struct {
	vehicles  map[uuid.UUID]fleet.Vehicle
	locations []fleet.LocationEntry
	users     map[string]identity.User
	rides     []ride.Ride
}

func (st memoryState) clone() memoryState {
	vehicles := make(map[uuid.UUID]fleet.Vehicle, len(st.vehicles))
	for k, v := range st.vehicles {
		vehicles[k] = v
	}
	users := make(map[string]identity.User, len(st.users))
	for k, v := range st.users {
		users[k] = v
	}
	return memoryState{
		vehicles:  vehicles,
		locations: slices.Clone(st.locations),
		users:     users,
		rides:     slices.Clone(st.rides),
	}
}

type memoryRepositories struct {
	state *memoryState
}

func (r *memoryRepositories) Vehicles() fleet.VehicleRepository   { return memoryVehicles{r.state} }
func (r *memoryRepositories) Locations() fleet.LocationRepository { return memoryLocations{r.state} }
func (r *memoryRepositories) Users() identity.UserRepository      { return memoryUsers{r.state} }
func (r *memoryRepositories) Rides() ride.Repository              { return memoryRides{r.state} }

type memoryVehicles struct{ st *memoryState }

func (m memoryVehicles) FindByID(_ context.Context, id uuid.UUID) (*fleet.Vehicle, error) {
	v, ok := m.st.vehicles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &v, nil
}

func (m memoryVehicles) List(_ context.Context, limit int) ([]fleet.Vehicle, error) {
	out := make([]fleet.Vehicle, 0, len(m.st.vehicles))
	for _, v := range m.st.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memoryVehicles) Create(_ context.Context, v *fleet.Vehicle) error {
	if _, ok := m.st.vehicles[v.ID]; ok {
		return shared.ErrAlreadyExists
	}
	m.st.vehicles[v.ID] = *v
	return nil
}

func (m memoryVehicles) SaveTransition(_ context.Context, v *fleet.Vehicle, wasInUse bool) error {
	stored, ok := m.st.vehicles[v.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.InUse != wasInUse {
		return shared.ErrConflict
	}
	m.st.vehicles[v.ID] = *v
	return nil
}

func (m memoryVehicles) DeleteIdle(_ context.Context, id uuid.UUID) error {
	stored, ok := m.st.vehicles[id]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.InUse {
		return shared.ErrConflict
	}
	delete(m.st.vehicles, id)
	m.st.locations = slices.DeleteFunc(m.st.locations, func(e fleet.LocationEntry) bool {
		return e.VehicleID == id
	})
	return nil
}

type memoryLocations struct{ st *memoryState }

func (m memoryLocations) Append(_ context.Context, e *fleet.LocationEntry) error {
	if _, ok := m.st.vehicles[e.VehicleID]; !ok {
		return shared.ErrNotFound
	}
	m.st.locations = append(m.st.locations, *e)
	return nil
}

func (m memoryLocations) FindLatest(_ context.Context, vehicleID uuid.UUID) (*fleet.LocationEntry, error) {
	var latest *fleet.LocationEntry
	for i := range m.st.locations {
		e := m.st.locations[i]
		if e.VehicleID != vehicleID {
			continue
		}
		// later appends win ties, matching insertion order in the ledger
		if latest == nil || !e.Timestamp.Before(latest.Timestamp) {
			latest = &e
		}
	}
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	return latest, nil
}

func (m memoryLocations) FindAt(_ context.Context, vehicleID uuid.UUID, ts time.Time) (*fleet.LocationEntry, error) {
	for _, e := range m.st.locations {
		if e.VehicleID == vehicleID && e.Timestamp.Equal(ts) {
			return &e, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m memoryLocations) ListByVehicle(_ context.Context, vehicleID uuid.UUID) ([]fleet.LocationEntry, error) {
	var out []fleet.LocationEntry
	for _, e := range m.st.locations {
		if e.VehicleID == vehicleID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

type memoryUsers struct{ st *memoryState }

func (m memoryUsers) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	u, ok := m.st.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (m memoryUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := m.st.users[email]
	return ok, nil
}

func (m memoryUsers) Create(_ context.Context, u *identity.User) error {
	if _, ok := m.st.users[u.Email]; ok {
		return shared.ErrAlreadyExists
	}
	m.st.users[u.Email] = *u
	return nil
}

func (m memoryUsers) Delete(_ context.Context, email string) error {
	if _, ok := m.st.users[email]; !ok {
		return shared.ErrNotFound
	}
	delete(m.st.users, email)
	return nil
}

type memoryRides struct{ st *memoryState }

func (m memoryRides) Create(_ context.Context, r *ride.Ride) error {
	for _, existing := range m.st.rides {
		if existing.VehicleID == r.VehicleID && existing.Active() {
			return shared.ErrConflict
		}
	}
	m.st.rides = append(m.st.rides, *r)
	return nil
}

func (m memoryRides) FindActive(_ context.Context, vehicleID uuid.UUID, userEmail string) (*ride.Ride, error) {
	for _, r := range m.st.rides {
		if r.VehicleID == vehicleID && r.UserEmail == userEmail && r.Active() {
			return &r, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m memoryRides) SaveEnd(_ context.Context, r *ride.Ride) error {
	for i, existing := range m.st.rides {
		if existing.ID == r.ID {
			if !existing.Active() {
				return shared.ErrConflict
			}
			m.st.rides[i] = *r
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m memoryRides) ListByUser(_ context.Context, userEmail string) ([]ride.History, error) {
	var out []ride.History
	for _, r := range m.st.rides {
		if r.UserEmail != userEmail {
			continue
		}
		h := ride.History{Ride: r}
		if v, ok := m.st.vehicles[r.VehicleID]; ok {
			h.VehicleInUse = v.InUse
			h.VehicleType = v.VehicleType
		}
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Active() != b.Active() {
			return a.Active()
		}
		if !a.Active() && !a.EndedAt.Equal(*b.EndedAt) {
			return a.EndedAt.After(*b.EndedAt)
		}
		return a.StartedAt.After(b.StartedAt)
	})
	return out, nil
}

func (m memoryRides) CountByVehicle(_ context.Context, vehicleID uuid.UUID) (int64, error) {
	var n int64
	for _, r := range m.st.rides {
		if r.VehicleID == vehicleID {
			n++
		}
	}
	return n, nil
}

func (m memoryRides) CountByUser(_ context.Context, userEmail string) (int64, error) {
	var n int64
	for _, r := range m.st.rides {
		if r.UserEmail == userEmail {
			n++
		}
	}
	return n, nil
}

var _ TransactionScope = (*MemoryScope)(nil)
