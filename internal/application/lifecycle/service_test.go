package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/movr/backend/internal/application/unitofwork"
	"github.com/movr/backend/internal/domain/fleet"
	"github.com/movr/backend/internal/domain/geo"
	"github.com/movr/backend/internal/domain/identity"
	"github.com/movr/backend/internal/domain/ride"
	"github.com/movr/backend/internal/domain/shared"
)

var (
	vehicleOnly = Features{LocationHistory: true}
	userRides   = Features{LocationHistory: true, UserRides: true}
	t0          = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
)

// testClock is a manually advanced time source
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	scope *unitofwork.MemoryScope
	clock *testClock
	svc   *Service
}

func newFixture(t *testing.T, features Features, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{scope: unitofwork.NewMemoryScope(), clock: &testClock{now: t0}}
	f.svc = NewService(f.scope, features, nil, append([]Option{WithClock(f.clock.Now)}, opts...)...)
	return f
}

// addVehicle registers an available vehicle at p with its initial ledger entry
func (f *fixture) addVehicle(t *testing.T, p geo.Point) uuid.UUID {
	t.Helper()
	v, err := fleet.NewVehicle("scooter", 90, p, nil, f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.scope.Execute(context.Background(), func(repos unitofwork.Repositories) error {
		if err := repos.Vehicles().Create(context.Background(), &v); err != nil {
			return err
		}
		entry := fleet.NewLocationEntry(v.ID, p, f.clock.Now())
		return repos.Locations().Append(context.Background(), &entry)
	}))
	return v.ID
}

func (f *fixture) addUser(t *testing.T, email string) {
	t.Helper()
	u, err := identity.NewUser(email, "Test", "Rider", []string{"555-0100"})
	require.NoError(t, err)
	require.NoError(t, f.scope.Execute(context.Background(), func(repos unitofwork.Repositories) error {
		return repos.Users().Create(context.Background(), &u)
	}))
}

func (f *fixture) vehicle(t *testing.T, id uuid.UUID) fleet.Vehicle {
	t.Helper()
	var v *fleet.Vehicle
	require.NoError(t, f.scope.Execute(context.Background(), func(repos unitofwork.Repositories) error {
		var err error
		v, err = repos.Vehicles().FindByID(context.Background(), id)
		return err
	}))
	return *v
}

func (f *fixture) history(t *testing.T, id uuid.UUID) []fleet.LocationEntry {
	t.Helper()
	var entries []fleet.LocationEntry
	require.NoError(t, f.scope.Execute(context.Background(), func(repos unitofwork.Repositories) error {
		var err error
		entries, err = repos.Locations().ListByVehicle(context.Background(), id)
		return err
	}))
	return entries
}

func TestCheckoutCheckin_RoundTrip(t *testing.T) {
	f := newFixture(t, vehicleOnly)
	ctx := context.Background()
	id := f.addVehicle(t, geo.Point{Latitude: 0, Longitude: 0})

	require.NoError(t, f.svc.Checkout(ctx, id))
	assert.True(t, f.vehicle(t, id).InUse)

	f.clock.Advance(60 * time.Minute)
	result, err := f.svc.Checkin(ctx, CheckinInput{VehicleID: id, Battery: 55, Latitude: 0, Longitude: 1})
	require.NoError(t, err)

	assert.InDelta(t, 111.19, result.Summary.DistanceKm, 0.01)
	assert.Equal(t, 60.0, result.Summary.DurationMinutes)
	assert.InDelta(t, 111.19, result.Summary.VelocityKmh, 0.01)
	assert.Equal(t, []string{
		"You have completed your ride on vehicle " + id.String() + ".",
		"You traveled 111.19 km in 60 minutes, for an average velocity of 111.19 km/h",
	}, result.Messages)

	v := f.vehicle(t, id)
	assert.False(t, v.InUse)
	assert.Equal(t, 55, v.Battery)
	assert.Equal(t, geo.Point{Latitude: 0, Longitude: 1}, *v.LastPosition)

	entries := f.history(t, id)
	require.Len(t, entries, 3, "registration, checkout and checkin")
	assert.Equal(t, geo.Point{Latitude: 0, Longitude: 0}, entries[1].Position, "checkout copies the last position")
	assert.Equal(t, t0, entries[1].Timestamp)
	assert.Equal(t, t0.Add(time.Hour), entries[2].Timestamp)
}

func TestCheckout_AlreadyInUse(t *testing.T) {
	f := newFixture(t, vehicleOnly)
	ctx := context.Background()
	id := f.addVehicle(t, geo.Point{Latitude: 1, Longitude: 1})
	require.NoError(t, f.svc.Checkout(ctx, id))
	before := f.history(t, id)

	err := f.svc.Checkout(ctx, id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConflict))
	assert.Contains(t, err.Error(), "is currently in use")

	assert.True(t, f.vehicle(t, id).InUse)
	assert.Equal(t, before, f.history(t, id), "nothing written")
}

func TestCheckout_UnknownVehicle(t *testing.T) {
	f := newFixture(t, vehicleOnly)
	err := f.svc.Checkout(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestCheckin_InvalidBattery(t *testing.T) {
	f := newFixture(t, vehicleOnly)
	ctx := context.Background()
	id := f.addVehicle(t, geo.Point{Latitude: 1, Longitude: 1})
	require.NoError(t, f.svc.Checkout(ctx, id))
	before := f.history(t, id)

	_, err := f.svc.Checkin(ctx, CheckinInput{VehicleID: id, Battery: 150, Latitude: 1, Longitude: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	var ve *shared.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{geo.MsgBatteryRange}, ve.Messages)

	v := f.vehicle(t, id)
	assert.True(t, v.InUse, "vehicle stays checked out")
	assert.Equal(t, 90, v.Battery)
	assert.Equal(t, before, f.history(t, id))
}

func TestCheckin_ListsEveryViolation(t *testing.T) {
	f := newFixture(t, vehicleOnly)
	_, err := f.svc.Checkin(context.Background(), CheckinInput{VehicleID: uuid.New(), Battery: -5, Latitude: -91, Longitude: 200})

	var ve *shared.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{geo.MsgLongitudeRange, geo.MsgLatitudeRange, geo.MsgBatteryRange}, ve.Messages)
}

func TestCheckin_NotInUse(t *testing.T) {
	f := newFixture(t, vehicleOnly)
	id := f.addVehicle(t, geo.Point{Latitude: 1, Longitude: 1})

	_, err := f.svc.Checkin(context.Background(), CheckinInput{VehicleID: id, Battery: 50, Latitude: 1, Longitude: 1})
	assert.True(t, errors.Is(err, shared.ErrConflict))
	assert.Len(t, f.history(t, id), 1)
}

func TestCheckoutCheckin_WithoutLocationHistory(t *testing.T) {
	f := newFixture(t, Features{})
	ctx := context.Background()
	id := f.addVehicle(t, geo.Point{Latitude: 0, Longitude: 0})

	require.NoError(t, f.svc.Checkout(ctx, id))
	f.clock.Advance(30 * time.Minute)
	result, err := f.svc.Checkin(ctx, CheckinInput{VehicleID: id, Battery: 70, Latitude: 0, Longitude: 1})
	require.NoError(t, err)

	assert.Equal(t, 30.0, result.Summary.DurationMinutes)
	assert.InDelta(t, 222.39, result.Summary.VelocityKmh, 0.01)
	assert.Len(t, f.history(t, id), 1, "only the seeded entry")
	assert.Equal(t, t0.Add(30*time.Minute), *f.vehicle(t, id).LastSeenAt)
}

func TestVehicleOnlyOperations_DisabledWithUserRides(t *testing.T) {
	f := newFixture(t, userRides)
	id := f.addVehicle(t, geo.Point{})

	assert.True(t, errors.Is(f.svc.Checkout(context.Background(), id), shared.ErrFeatureDisabled))
	_, err := f.svc.Checkin(context.Background(), CheckinInput{VehicleID: id, Battery: 1})
	assert.True(t, errors.Is(err, shared.ErrFeatureDisabled))
}

func TestCheckout_ConcurrentAttempts(t *testing.T) {
	f := newFixture(t, vehicleOnly)
	id := f.addVehicle(t, geo.Point{Latitude: 3, Longitude: 3})

	const attempts = 16
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.svc.Checkout(context.Background(), id)
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, shared.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, conflicts)
	assert.Len(t, f.history(t, id), 2, "a single checkout entry")
}

// failingScope wraps a scope and fails the ledger append inside the unit
type failingScope struct {
	inner unitofwork.TransactionScope
}

func (s failingScope) Execute(ctx context.Context, fn func(unitofwork.Repositories) error) error {
	return s.inner.Execute(ctx, func(repos unitofwork.Repositories) error {
		return fn(failingRepos{repos})
	})
}

type failingRepos struct{ unitofwork.Repositories }

func (r failingRepos) Locations() fleet.LocationRepository {
	return failingLocations{r.Repositories.Locations()}
}

type failingLocations struct{ fleet.LocationRepository }

func (failingLocations) Append(context.Context, *fleet.LocationEntry) error {
	return errors.New("disk full")
}

func TestStartRide_RollsBackOnStorageFailure(t *testing.T) {
	f := newFixture(t, userRides)
	id := f.addVehicle(t, geo.Point{Latitude: 1, Longitude: 2})
	f.addUser(t, "rider@movr.io")

	svc := NewService(failingScope{f.scope}, userRides, nil, WithClock(f.clock.Now))
	_, err := svc.StartRide(context.Background(), StartRideInput{VehicleID: id, UserEmail: "rider@movr.io"})
	require.EqualError(t, err, "disk full")

	assert.False(t, f.vehicle(t, id).InUse)
	_, err = f.svc.RidesForUser(context.Background(), "rider@movr.io")
	assert.True(t, errors.Is(err, shared.ErrNotFound), "ride creation was rolled back")
}

func TestStartRide(t *testing.T) {
	ctx := context.Background()

	t.Run("opens a ride", func(t *testing.T) {
		f := newFixture(t, userRides)
		id := f.addVehicle(t, geo.Point{Latitude: 40.7, Longitude: -74})
		f.addUser(t, "rider@movr.io")

		res, err := f.svc.StartRide(ctx, StartRideInput{VehicleID: id, UserEmail: " Rider@movr.io "})
		require.NoError(t, err)

		assert.Equal(t, id, res.Ride.VehicleID)
		assert.Equal(t, "rider@movr.io", res.Ride.UserEmail)
		assert.Equal(t, t0, res.Ride.StartedAt)
		assert.Nil(t, res.Ride.EndedAt)
		assert.Equal(t, []string{"Ride started with vehicle " + id.String()}, res.Messages)
		assert.True(t, f.vehicle(t, id).InUse)

		entries := f.history(t, id)
		require.Len(t, entries, 2)
		assert.Equal(t, res.Ride.StartedAt, entries[1].Timestamp)
	})

	t.Run("twice without end conflicts", func(t *testing.T) {
		f := newFixture(t, userRides)
		id := f.addVehicle(t, geo.Point{})
		f.addUser(t, "rider@movr.io")
		f.addUser(t, "other@movr.io")

		_, err := f.svc.StartRide(ctx, StartRideInput{VehicleID: id, UserEmail: "rider@movr.io"})
		require.NoError(t, err)

		_, err = f.svc.StartRide(ctx, StartRideInput{VehicleID: id, UserEmail: "rider@movr.io"})
		assert.True(t, errors.Is(err, shared.ErrConflict))

		_, err = f.svc.StartRide(ctx, StartRideInput{VehicleID: id, UserEmail: "other@movr.io"})
		assert.True(t, errors.Is(err, shared.ErrConflict))
	})

	t.Run("unknown user changes nothing", func(t *testing.T) {
		f := newFixture(t, userRides)
		id := f.addVehicle(t, geo.Point{})

		_, err := f.svc.StartRide(ctx, StartRideInput{VehicleID: id, UserEmail: "ghost@movr.io"})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		assert.False(t, f.vehicle(t, id).InUse)
		assert.Len(t, f.history(t, id), 1)
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		f := newFixture(t, userRides)
		f.addUser(t, "rider@movr.io")

		_, err := f.svc.StartRide(ctx, StartRideInput{VehicleID: uuid.New(), UserEmail: "rider@movr.io"})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("missing identifiers", func(t *testing.T) {
		f := newFixture(t, userRides)
		_, err := f.svc.StartRide(ctx, StartRideInput{})

		var ve *shared.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, []string{MsgNoVehicleID, MsgNoUserEmail}, ve.Messages)
	})

	t.Run("disabled in vehicle-only mode", func(t *testing.T) {
		f := newFixture(t, vehicleOnly)
		_, err := f.svc.StartRide(ctx, StartRideInput{VehicleID: uuid.New(), UserEmail: "a@b.io"})
		assert.True(t, errors.Is(err, shared.ErrFeatureDisabled))
	})
}

func TestEndRide(t *testing.T) {
	ctx := context.Background()

	t.Run("closes the ride and summarizes the trip", func(t *testing.T) {
		f := newFixture(t, userRides)
		id := f.addVehicle(t, geo.Point{Latitude: 0, Longitude: 0})
		f.addUser(t, "rider@movr.io")
		_, err := f.svc.StartRide(ctx, StartRideInput{VehicleID: id, UserEmail: "rider@movr.io"})
		require.NoError(t, err)

		f.clock.Advance(time.Hour)
		res, err := f.svc.EndRide(ctx, EndRideInput{VehicleID: id, UserEmail: "rider@movr.io", Battery: 40, Latitude: 0, Longitude: 1})
		require.NoError(t, err)
		assert.InDelta(t, 111.19, res.Summary.DistanceKm, 0.01)
		assert.InDelta(t, 111.19, res.Summary.VelocityKmh, 0.01)

		v := f.vehicle(t, id)
		assert.False(t, v.InUse)
		assert.Equal(t, 40, v.Battery)

		_, err = f.svc.ActiveRide(ctx, id, "rider@movr.io")
		assert.True(t, errors.Is(err, shared.ErrNotFound), "ride is no longer active")

		rides, err := f.svc.RidesForUser(ctx, "rider@movr.io")
		require.NoError(t, err)
		require.Len(t, rides, 1)
		require.NotNil(t, rides[0].EndedAt)
		assert.Equal(t, t0.Add(time.Hour), *rides[0].EndedAt)
	})

	t.Run("no active ride", func(t *testing.T) {
		f := newFixture(t, userRides)
		id := f.addVehicle(t, geo.Point{})
		f.addUser(t, "rider@movr.io")

		_, err := f.svc.EndRide(ctx, EndRideInput{VehicleID: id, UserEmail: "rider@movr.io", Battery: 40})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("another user cannot end the ride", func(t *testing.T) {
		f := newFixture(t, userRides)
		id := f.addVehicle(t, geo.Point{})
		f.addUser(t, "rider@movr.io")
		f.addUser(t, "other@movr.io")
		_, err := f.svc.StartRide(ctx, StartRideInput{VehicleID: id, UserEmail: "rider@movr.io"})
		require.NoError(t, err)

		_, err = f.svc.EndRide(ctx, EndRideInput{VehicleID: id, UserEmail: "other@movr.io", Battery: 40})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		assert.True(t, f.vehicle(t, id).InUse)
	})

	t.Run("missing identifiers", func(t *testing.T) {
		f := newFixture(t, userRides)
		_, err := f.svc.EndRide(ctx, EndRideInput{Battery: 40})

		var ve *shared.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, []string{MsgEndNoVehicleID, MsgEndNoUserEmail}, ve.Messages)
	})

	t.Run("invalid reading writes nothing", func(t *testing.T) {
		f := newFixture(t, userRides)
		id := f.addVehicle(t, geo.Point{})
		f.addUser(t, "rider@movr.io")
		_, err := f.svc.StartRide(ctx, StartRideInput{VehicleID: id, UserEmail: "rider@movr.io"})
		require.NoError(t, err)

		_, err = f.svc.EndRide(ctx, EndRideInput{VehicleID: id, UserEmail: "rider@movr.io", Battery: 150, Latitude: 95})
		var ve *shared.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, []string{geo.MsgLatitudeRange, geo.MsgBatteryRange}, ve.Messages)

		_, err = f.svc.ActiveRide(ctx, id, "rider@movr.io")
		assert.NoError(t, err, "ride still active")
	})
}

func TestActiveRide(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, userRides)
	id := f.addVehicle(t, geo.Point{Latitude: 12.5, Longitude: -3.25})
	f.addUser(t, "rider@movr.io")

	_, err := f.svc.ActiveRide(ctx, id, "rider@movr.io")
	assert.True(t, errors.Is(err, shared.ErrNotFound), "vehicle not in use")

	f.clock.Advance(5 * time.Minute)
	_, err = f.svc.StartRide(ctx, StartRideInput{VehicleID: id, UserEmail: "rider@movr.io"})
	require.NoError(t, err)

	view, err := f.svc.ActiveRide(ctx, id, "RIDER@movr.io")
	require.NoError(t, err)
	assert.Equal(t, &ActiveRideView{
		VehicleID:     id,
		InUse:         true,
		Battery:       90,
		VehicleType:   "scooter",
		LastCheckin:   t0.Add(5 * time.Minute),
		LastLatitude:  12.5,
		LastLongitude: -3.25,
	}, view)

	_, err = f.svc.ActiveRide(ctx, id, "other@movr.io")
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestRidesForUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, userRides)
	f.addUser(t, "rider@movr.io")
	a := f.addVehicle(t, geo.Point{})
	b := f.addVehicle(t, geo.Point{})

	_, err := f.svc.RidesForUser(ctx, "")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = f.svc.RidesForUser(ctx, "rider@movr.io")
	assert.True(t, errors.Is(err, ride.ErrNoRides), "empty history is NotFound")

	ride1 := func(id uuid.UUID, minutes time.Duration) {
		_, err := f.svc.StartRide(ctx, StartRideInput{VehicleID: id, UserEmail: "rider@movr.io"})
		require.NoError(t, err)
		f.clock.Advance(minutes)
		_, err = f.svc.EndRide(ctx, EndRideInput{VehicleID: id, UserEmail: "rider@movr.io", Battery: 50})
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}
	ride1(a, 10*time.Minute)
	ride1(b, 10*time.Minute)
	_, err = f.svc.StartRide(ctx, StartRideInput{VehicleID: a, UserEmail: "rider@movr.io"})
	require.NoError(t, err)

	rides, err := f.svc.RidesForUser(ctx, "rider@movr.io")
	require.NoError(t, err)
	require.Len(t, rides, 3)

	assert.True(t, rides[0].Active(), "active ride first")
	assert.True(t, rides[0].VehicleInUse)
	assert.Equal(t, b, rides[1].VehicleID, "then most recently ended")
	assert.Equal(t, a, rides[2].VehicleID)
	assert.Equal(t, "scooter", rides[2].VehicleType)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordTransition(ctx context.Context, op Operation, err error) {
	m.Called(op, err == nil)
}

func (m *mockRecorder) RecordTrip(ctx context.Context, summary geo.TripSummary) {
	m.Called(summary.DurationMinutes)
}

func TestService_RecordsTransitions(t *testing.T) {
	rec := new(mockRecorder)
	rec.On("RecordTransition", OpCheckout, true).Once()
	rec.On("RecordTransition", OpCheckout, false).Once()
	rec.On("RecordTransition", OpCheckin, true).Once()
	rec.On("RecordTrip", 15.0).Once()

	f := newFixture(t, vehicleOnly, WithRecorder(rec))
	ctx := context.Background()
	id := f.addVehicle(t, geo.Point{})

	require.NoError(t, f.svc.Checkout(ctx, id))
	require.Error(t, f.svc.Checkout(ctx, id))
	f.clock.Advance(15 * time.Minute)
	_, err := f.svc.Checkin(ctx, CheckinInput{VehicleID: id, Battery: 80})
	require.NoError(t, err)

	rec.AssertExpectations(t)
}
