package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCatalog struct{ rates map[string]int64 }

func (f *fakeCatalog) RateCents(_ context.Context, roomID string) (int64, error) {
	rate, ok := f.rates[roomID]
	if !ok {
		return 0, &NotFoundError{Resource: "room", ID: roomID}
	}
	return rate, nil
}

// fakeReserver pops one scripted error per attempt; nil means the attempt
// commits.
type fakeReserver struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (f *fakeReserver) Reserve(_ context.Context, _ *Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func newTestCoordinator(store Reserver, cfg CoordinatorConfig) (*Coordinator, *[]time.Duration) {
	c := NewCoordinator(store, &fakeCatalog{rates: map[string]int64{"room-1": 35000}}, discardLogger(), cfg)
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func validInput() CreateInput {
	start := time.Date(2024, 6, 3, 4, 30, 0, 0, time.UTC)
	return CreateInput{
		RoomID:    "room-1",
		UserName:  "dana",
		StartTime: start,
		EndTime:   start.Add(3 * time.Hour),
	}
}

func TestCreateBookingValidation(t *testing.T) {
	start := time.Date(2024, 6, 3, 4, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing room", func(in *CreateInput) { in.RoomID = "" }},
		{"missing user", func(in *CreateInput) { in.UserName = "" }},
		{"missing start", func(in *CreateInput) { in.StartTime = time.Time{} }},
		{"missing end", func(in *CreateInput) { in.EndTime = time.Time{}; in.StartTime = start }},
		{"inverted interval", func(in *CreateInput) { in.EndTime = in.StartTime.Add(-time.Hour) }},
		{"zero-length interval", func(in *CreateInput) { in.EndTime = in.StartTime }},
		{"over 12 hours", func(in *CreateInput) { in.EndTime = in.StartTime.Add(12*time.Hour + time.Minute) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeReserver{}
			c, _ := newTestCoordinator(store, CoordinatorConfig{})

			in := validInput()
			tt.mutate(&in)

			_, err := c.CreateBooking(context.Background(), in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if store.calls != 0 {
				t.Errorf("store called %d times for invalid input, want 0", store.calls)
			}
		})
	}
}

func TestCreateBookingExactlyTwelveHoursAllowed(t *testing.T) {
	c, _ := newTestCoordinator(&fakeReserver{}, CoordinatorConfig{})
	in := validInput()
	in.EndTime = in.StartTime.Add(12 * time.Hour)

	b, err := c.CreateBooking(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.DurationMinutes != 720 {
		t.Errorf("duration = %d minutes, want 720", b.DurationMinutes)
	}
}

func TestCreateBookingUnknownRoom(t *testing.T) {
	store := &fakeReserver{}
	c, _ := newTestCoordinator(store, CoordinatorConfig{})

	in := validInput()
	in.RoomID = "room-404"

	_, err := c.CreateBooking(context.Background(), in)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	if store.calls != 0 {
		t.Errorf("store called %d times for unknown room, want 0", store.calls)
	}
}

func TestCreateBookingSetsServerPrice(t *testing.T) {
	c, _ := newTestCoordinator(&fakeReserver{}, CoordinatorConfig{})

	b, err := c.CreateBooking(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.TotalCents != 157500 {
		t.Errorf("total = %d cents, want 157500", b.TotalCents)
	}
	if b.Status != StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", b.Status)
	}
	if b.ID == "" {
		t.Error("booking id is empty")
	}
}

func TestCreateBookingConflictNotRetried(t *testing.T) {
	conflict := &ConflictError{
		ConflictingStart: time.Date(2024, 6, 3, 4, 0, 0, 0, time.UTC),
		ConflictingEnd:   time.Date(2024, 6, 3, 6, 0, 0, 0, time.UTC),
	}
	store := &fakeReserver{errs: []error{conflict}}
	c, slept := newTestCoordinator(store, CoordinatorConfig{})

	_, err := c.CreateBooking(context.Background(), validInput())
	var got *ConflictError
	if !errors.As(err, &got) {
		t.Fatalf("error = %v, want ConflictError", err)
	}
	if !got.ConflictingStart.Equal(conflict.ConflictingStart) {
		t.Errorf("conflicting interval = %v-%v, want %v-%v",
			got.ConflictingStart, got.ConflictingEnd, conflict.ConflictingStart, conflict.ConflictingEnd)
	}
	if store.calls != 1 {
		t.Errorf("store called %d times, want 1 (conflicts are not retried)", store.calls)
	}
	if len(*slept) != 0 {
		t.Errorf("slept %v, want no backoff on business conflict", *slept)
	}
}

func TestCreateBookingRetriesSerializationConflicts(t *testing.T) {
	transient := fmt.Errorf("%w: could not serialize access", ErrSerialization)
	store := &fakeReserver{errs: []error{transient, transient}}
	c, slept := newTestCoordinator(store, CoordinatorConfig{MaxAttempts: 3, BackoffBase: 10 * time.Millisecond})

	b, err := c.CreateBooking(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b == nil || store.calls != 3 {
		t.Fatalf("store called %d times, want 3", store.calls)
	}
	// Linear backoff: base*1 then base*2.
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if len(*slept) != len(want) || (*slept)[0] != want[0] || (*slept)[1] != want[1] {
		t.Errorf("backoff = %v, want %v", *slept, want)
	}
}

func TestCreateBookingRetryExhaustion(t *testing.T) {
	transient := fmt.Errorf("%w: could not serialize access", ErrSerialization)
	store := &fakeReserver{errs: []error{transient, transient, transient}}
	c, _ := newTestCoordinator(store, CoordinatorConfig{MaxAttempts: 3, BackoffBase: time.Millisecond})

	_, err := c.CreateBooking(context.Background(), validInput())
	var overload *OverloadError
	if !errors.As(err, &overload) {
		t.Fatalf("error = %v, want OverloadError", err)
	}
	if overload.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", overload.Attempts)
	}
	if store.calls != 3 {
		t.Errorf("store called %d times, want exactly the budget of 3", store.calls)
	}
}

func TestCreateBookingHardStoreErrorNotRetried(t *testing.T) {
	boom := errors.New("connection refused")
	store := &fakeReserver{errs: []error{boom}}
	c, _ := newTestCoordinator(store, CoordinatorConfig{})

	_, err := c.CreateBooking(context.Background(), validInput())
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped store error", err)
	}
	if store.calls != 1 {
		t.Errorf("store called %d times, want 1", store.calls)
	}
}

func TestCreateBookingBackoffObservesContext(t *testing.T) {
	transient := fmt.Errorf("%w: could not serialize access", ErrSerialization)
	store := &fakeReserver{errs: []error{transient, transient, transient}}
	c := NewCoordinator(store, &fakeCatalog{rates: map[string]int64{"room-1": 35000}},
		discardLogger(), CoordinatorConfig{MaxAttempts: 3, BackoffBase: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CreateBooking(ctx, validInput())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled from backoff sleep", err)
	}
}

// memReserver emulates the store's serializable guarantee with a mutex: the
// overlap check and insert are atomic, so at most one of any overlapping pair
// can commit.
type memReserver struct {
	mu       sync.Mutex
	byRoom   map[string][]Interval
	accepted []Booking
}

func (m *memReserver) Reserve(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, iv := range m.byRoom[b.RoomID] {
		if iv.Start.Before(b.EndTime) && iv.End.After(b.StartTime) {
			return &ConflictError{ConflictingStart: iv.Start, ConflictingEnd: iv.End}
		}
	}
	m.byRoom[b.RoomID] = append(m.byRoom[b.RoomID], Interval{Start: b.StartTime, End: b.EndTime})
	m.accepted = append(m.accepted, *b)
	return nil
}

func TestConcurrentBookingsNeverOverlap(t *testing.T) {
	store := &memReserver{byRoom: map[string][]Interval{}}
	c, _ := newTestCoordinator(store, CoordinatorConfig{})

	base := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(1))

	type req struct{ start, end time.Time }
	var reqs []req
	for i := 0; i < 120; i++ {
		start := base.Add(time.Duration(rng.Intn(20)) * 30 * time.Minute)
		end := start.Add(time.Duration(1+rng.Intn(6)) * 30 * time.Minute)
		reqs = append(reqs, req{start, end})
	}

	var wg sync.WaitGroup
	for _, r := range reqs {
		wg.Add(1)
		go func(r req) {
			defer wg.Done()
			_, err := c.CreateBooking(context.Background(), CreateInput{
				RoomID: "room-1", UserName: "load", StartTime: r.start, EndTime: r.end,
			})
			var conflict *ConflictError
			if err != nil && !errors.As(err, &conflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}(r)
	}
	wg.Wait()

	got := store.accepted
	if len(got) == 0 {
		t.Fatal("no booking committed")
	}
	for i := 0; i < len(got); i++ {
		for j := i + 1; j < len(got); j++ {
			a, b := got[i], got[j]
			if a.StartTime.Before(b.EndTime) && a.EndTime.After(b.StartTime) {
				t.Fatalf("committed bookings overlap: [%v,%v) and [%v,%v)",
					a.StartTime, a.EndTime, b.StartTime, b.EndTime)
			}
		}
	}
}
