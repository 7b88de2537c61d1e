package visitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finitefield.org/museum-kiosk/internal/content"
	"finitefield.org/museum-kiosk/internal/prefs"
)

type fakeAPI struct {
	mu sync.Mutex

	registerCalls int32
	receipt       content.Receipt
	registerErr   error
	registerGate  chan struct{} // when set, RegisterVisitor blocks until closed

	landingCalls int32
	landingGates map[string]chan struct{} // per-phone blocks
	landingErr   error
}

func (f *fakeAPI) FetchLanding(ctx context.Context, clientCode, phone string) (content.Entity, error) {
	atomic.AddInt32(&f.landingCalls, 1)
	f.mu.Lock()
	gate := f.landingGates[phone]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return content.Entity{}, ctx.Err()
		}
	}
	if f.landingErr != nil {
		return content.Entity{}, f.landingErr
	}
	return content.Entity{
		ID:          "lp-" + phone,
		Title:       "landing for " + phone,
		Description: "personalized",
	}, nil
}

func (f *fakeAPI) RegisterVisitor(ctx context.Context, name, phone, clientCode string) (content.Receipt, error) {
	atomic.AddInt32(&f.registerCalls, 1)
	if f.registerGate != nil {
		select {
		case <-f.registerGate:
		case <-ctx.Done():
			return content.Receipt{}, ctx.Err()
		}
	}
	if f.registerErr != nil {
		return content.Receipt{}, f.registerErr
	}
	return f.receipt, nil
}

func newTestController(api *fakeAPI) *Controller {
	return NewController("museum-01", api, nil, WithQuietPeriod(10*time.Millisecond))
}

func TestMountWithStoredIdentitySkipsOnboarding(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewMemStore()
	require.NoError(t, store.Set(ctx, prefs.KeyVisitorName, "Asha", 0))
	require.NoError(t, store.Set(ctx, prefs.KeyVisitorPhone, "9876543210", 0))
	require.NoError(t, store.Set(ctx, prefs.KeyLanguage, "hindi", 0))

	c := newTestController(&fakeAPI{})
	c.Mount(ctx, store)

	assert.Equal(t, Registered, c.State())
	assert.Equal(t, "hindi", c.Language())
	name, phone := c.Identity()
	assert.Equal(t, "Asha", name)
	assert.Equal(t, "9876543210", phone)
}

func TestMountWithIdentityButNoLanguageDefaults(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewMemStore()
	require.NoError(t, store.Set(ctx, prefs.KeyVisitorName, "Asha", 0))
	require.NoError(t, store.Set(ctx, prefs.KeyVisitorPhone, "9876543210", 0))

	c := newTestController(&fakeAPI{})
	c.Mount(ctx, store)

	assert.Equal(t, Registered, c.State())
	assert.Equal(t, "english", c.Language())
}

func TestMountWithLanguageOnlyStillShowsOnboarding(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewMemStore()
	require.NoError(t, store.Set(ctx, prefs.KeyLanguage, "tamil", 0))

	c := newTestController(&fakeAPI{})
	c.Mount(ctx, store)

	assert.Equal(t, AwaitingOnboarding, c.State(), "stored language alone is not sufficient")
	assert.Equal(t, "tamil", c.Language(), "language pre-filled on the form")
}

func TestSubmitValidatesBeforeAnyNetworkCall(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	c := newTestController(api)
	store := prefs.NewMemStore()

	cases := []struct {
		name string
		in   Input
		msg  string
	}{
		{"missing name", Input{Name: "", Phone: "9999999999", Language: "english"}, MsgNameRequired},
		{"missing phone", Input{Name: "Asha", Phone: "  ", Language: "english"}, MsgPhoneRequired},
		{"missing language", Input{Name: "Asha", Phone: "9999999999"}, MsgLanguageRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := c.Submit(ctx, store, tc.in)
			var ue *UserError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tc.msg, ue.Msg)
		})
	}
	assert.Zero(t, atomic.LoadInt32(&api.registerCalls), "validation failures must not reach the network")
	_, ok := store.Get(ctx, prefs.KeyVisitorName)
	assert.False(t, ok)
}

func TestSubmitSuccessPersistsAndRegisters(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{receipt: content.Receipt{Accepted: true, Message: "Visitor data stored successfully"}}
	c := newTestController(api)
	store := prefs.NewMemStore()
	c.Mount(ctx, store)
	require.Equal(t, AwaitingOnboarding, c.State())

	err := c.Submit(ctx, store, Input{Name: "Asha", Phone: "9876543210", Language: "hindi"})
	require.NoError(t, err)

	assert.Equal(t, Registered, c.State())
	for key, want := range map[string]string{
		prefs.KeyVisitorName:  "Asha",
		prefs.KeyVisitorPhone: "9876543210",
		prefs.KeyLanguage:     "hindi",
	} {
		got, ok := store.Get(ctx, key)
		require.True(t, ok, key)
		assert.Equal(t, want, got)
	}
}

// Any non-empty phone is submitted as-is; the length threshold only gates
// debounced refreshes, the remote API owns phone format policy.
func TestSubmitAcceptsShortPhone(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{receipt: content.Receipt{Accepted: true}}
	c := newTestController(api)
	store := prefs.NewMemStore()
	c.Mount(ctx, store)

	err := c.Submit(ctx, store, Input{Name: "Asha", Phone: "98765", Language: "english"})
	require.NoError(t, err)

	assert.Equal(t, Registered, c.State())
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.registerCalls))
	got, ok := store.Get(ctx, prefs.KeyVisitorPhone)
	require.True(t, ok)
	assert.Equal(t, "98765", got)
}

func TestSubmitRejectedStaysAwaitingAndPersistsNothing(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{receipt: content.Receipt{Accepted: false, Message: "duplicate phone number"}}
	c := newTestController(api)
	store := prefs.NewMemStore()
	c.Mount(ctx, store)

	err := c.Submit(ctx, store, Input{Name: "Asha", Phone: "9876543210", Language: "hindi"})
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "duplicate phone number", ue.Msg)
	assert.Equal(t, AwaitingOnboarding, c.State())
	_, ok := store.Get(ctx, prefs.KeyVisitorName)
	assert.False(t, ok)
}

func TestSubmitTransportFailureSurfacesGenericMessage(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{registerErr: &content.Failure{Reason: content.ReasonTransport, RawMessage: "dial tcp: refused"}}
	c := newTestController(api)
	store := prefs.NewMemStore()
	c.Mount(ctx, store)

	err := c.Submit(ctx, store, Input{Name: "Asha", Phone: "9876543210", Language: "hindi"})
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, MsgGenericFailure, ue.Msg)
	assert.Equal(t, AwaitingOnboarding, c.State())
}

func TestSubmitFiresOncePerClick(t *testing.T) {
	ctx := context.Background()
	gate := make(chan struct{})
	api := &fakeAPI{receipt: content.Receipt{Accepted: true}, registerGate: gate}
	c := newTestController(api)
	store := prefs.NewMemStore()

	done := make(chan error, 1)
	go func() {
		done <- c.Submit(ctx, store, Input{Name: "Asha", Phone: "9876543210", Language: "hindi"})
	}()

	// wait for the first submission to be in flight
	require.Eventually(t, c.Submitting, time.Second, time.Millisecond)

	err := c.Submit(ctx, store, Input{Name: "Asha", Phone: "9876543210", Language: "hindi"})
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, MsgSubmitInFlight, ue.Msg)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.registerCalls))
}

func TestPhoneEditBelowThresholdNeverFetches(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(api)

	c.OnPhoneEdited("98765")
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&api.landingCalls))
}

func TestPhoneEditBurstFetchesOnceWithSettledValue(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(api)

	for _, v := range []string{"987", "98765", "987654321", "9876543210"} {
		c.OnPhoneEdited(v)
	}
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&api.landingCalls) == 1
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return c.Resolved().Title == "landing for 9876543210"
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.landingCalls), "burst must trigger exactly one fetch")
}

func TestStaleResponseForSupersededValueIsDiscarded(t *testing.T) {
	slow := make(chan struct{})
	api := &fakeAPI{landingGates: map[string]chan struct{}{"1111111111": slow}}
	c := newTestController(api)

	c.OnPhoneEdited("1111111111")
	// let the first value settle and its fetch get in flight
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&api.landingCalls) == 1
	}, time.Second, time.Millisecond)

	c.OnPhoneEdited("2222222222")
	require.Eventually(t, func() bool {
		return c.Resolved().Title == "landing for 2222222222"
	}, time.Second, time.Millisecond)

	// the slow superseded response arrives after the fresh one
	close(slow)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "landing for 2222222222", c.Resolved().Title,
		"stale slower response must not overwrite the fresher one")
}

func TestCloseCancelsPendingRefresh(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(api)

	c.OnPhoneEdited("9876543210")
	c.Close()
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&api.landingCalls))
}

func TestSetLanguageReResolvesWithoutNetwork(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	c := newTestController(api)
	store := prefs.NewMemStore()

	c.SetEntity(content.Entity{
		Title:       "Default Title",
		Description: "Default description",
		Translations: []content.Translation{
			{Language: "hindi", Title: "हिन्दी शीर्षक"},
		},
	})
	require.Equal(t, "Default Title", c.Resolved().Title)

	c.SetLanguage(ctx, store, "hindi")
	assert.Equal(t, "हिन्दी शीर्षक", c.Resolved().Title)
	assert.Equal(t, "Default description", c.Resolved().Description, "field-level fallback")
	assert.Zero(t, atomic.LoadInt32(&api.landingCalls), "language change must not fetch")

	got, ok := store.Get(ctx, prefs.KeyLanguage)
	require.True(t, ok)
	assert.Equal(t, "hindi", got)
}

func TestManagerReusesControllerPerDevice(t *testing.T) {
	m := NewManager(&fakeAPI{}, nil, 10*time.Millisecond)
	a := m.Acquire("dev-1", "museum-01")
	b := m.Acquire("dev-1", "museum-01")
	other := m.Acquire("dev-2", "museum-01")

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
	m.Close()
}

func TestManagerEvictsIdleSessions(t *testing.T) {
	m := NewManager(&fakeAPI{}, nil, 10*time.Millisecond, WithIdleTimeout(40*time.Millisecond))
	defer m.Close()

	a := m.Acquire("dev-1", "museum-01")
	// well past the idle threshold plus a sweep period
	time.Sleep(200 * time.Millisecond)
	again := m.Acquire("dev-1", "museum-01")
	assert.NotSame(t, a, again)

	// a touched session survives the sweep
	b := m.Acquire("dev-1", "museum-01")
	assert.Same(t, again, b)
}

var errBoom = errors.New("boom")

func TestFetchFailureLeavesPreviousEntityInPlace(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(api)
	c.SetEntity(content.Entity{Title: "First", Description: "d"})

	api.landingErr = errBoom
	c.OnPhoneEdited("9876543210")
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&api.landingCalls) == 1
	}, time.Second, time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "First", c.Resolved().Title, "no partial overwrite on fetch failure")
}
