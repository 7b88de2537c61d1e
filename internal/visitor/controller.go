// Package visitor orchestrates the onboarding and content-resolution flow
// for one device: preference reads at mount, form validation and
// registration, and debounced landing refreshes keyed off phone edits.
package visitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"finitefield.org/museum-kiosk/internal/content"
	"finitefield.org/museum-kiosk/internal/debounce"
	"finitefield.org/museum-kiosk/internal/i18n"
	"finitefield.org/museum-kiosk/internal/prefs"
)

// State of the onboarding flow for a device.
type State int

const (
	// Unregistered means no stored identity and no onboarding shown yet.
	Unregistered State = iota
	// AwaitingOnboarding means the form is shown; language may be pre-filled.
	AwaitingOnboarding
	// Registered means identity and language are known and content may load.
	Registered
)

func (s State) String() string {
	switch s {
	case AwaitingOnboarding:
		return "awaiting_onboarding"
	case Registered:
		return "registered"
	default:
		return "unregistered"
	}
}

// MinPhoneLen is the minimum input length treated as a viable phone number
// for debounced landing refreshes.
const MinPhoneLen = 10

// User-visible messages. The controller is the only layer that produces
// text shown to visitors; lower layers return typed failures.
const (
	MsgNameRequired     = "Please enter your name"
	MsgPhoneRequired    = "Please enter your phone number"
	MsgLanguageRequired = "Please select a language"
	MsgSubmitInFlight   = "Submission already in progress"
	MsgGenericFailure   = "Error submitting visitor data. Please try again."
)

// ContentAPI is the slice of the content client the controller needs.
type ContentAPI interface {
	FetchLanding(ctx context.Context, clientCode, phone string) (content.Entity, error)
	RegisterVisitor(ctx context.Context, name, phone, clientCode string) (content.Receipt, error)
}

// UserError carries a message safe to render inline on the form.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string { return e.Msg }

// Input is the onboarding form submission.
type Input struct {
	Name     string
	Phone    string
	Language string
}

// Controller holds per-device session state. Methods are safe for
// concurrent use; the debounced fetch applies its result only while its
// generation is still current.
type Controller struct {
	clientCode string
	api        ContentAPI
	gate       *debounce.Gate
	log        *zap.Logger

	mu         sync.Mutex
	state      State
	name       string
	phone      string
	language   string
	entity     *content.Entity
	view       content.ResolvedView
	submitting bool
	closed     bool
}

// Option tweaks controller construction.
type Option func(*Controller)

// WithQuietPeriod overrides the debounce quiet period.
func WithQuietPeriod(d time.Duration) Option {
	return func(c *Controller) { c.gate = debounce.New(d) }
}

// NewController builds a controller for one device and client code.
func NewController(clientCode string, api ContentAPI, log *zap.Logger, opts ...Option) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		clientCode: strings.TrimSpace(clientCode),
		api:        api,
		gate:       debounce.New(debounce.DefaultQuietPeriod),
		log:        log.With(zap.String("client_code", clientCode)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mount reads stored preferences and decides onboarding visibility. A
// stored name+phone pair reaches Registered directly with the stored
// language (absent treated as default); a stored language alone still shows
// the form, pre-filled. Idempotent.
func (c *Controller) Mount(ctx context.Context, store prefs.Store) {
	name, _ := store.Get(ctx, prefs.KeyVisitorName)
	phone, _ := store.Get(ctx, prefs.KeyVisitorPhone)
	language, _ := store.Get(ctx, prefs.KeyLanguage)

	c.mu.Lock()
	defer c.mu.Unlock()
	if name != "" && phone != "" {
		c.name = name
		c.phone = phone
		c.language = language
		if c.language == "" {
			c.language = i18n.DefaultLanguage
		}
		c.state = Registered
		return
	}
	c.language = language // pre-fill only; not sufficient to register
	c.state = AwaitingOnboarding
}

// State returns the current onboarding state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Language returns the active language preference, defaulting when unset.
func (c *Controller) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.language == "" {
		return i18n.DefaultLanguage
	}
	return c.language
}

// StoredLanguage returns the language preference exactly as stored, empty
// when the device has none. Used to pre-fill the onboarding form without
// masking absence behind the default.
func (c *Controller) StoredLanguage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

// Identity returns the stored visitor name and phone, if registered.
func (c *Controller) Identity() (name, phone string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name, c.phone
}

// SetLanguage records an explicit language selection and re-resolves the
// current entity. No network call is made; the preference write failure is
// tolerated (callers re-read on the next mount).
func (c *Controller) SetLanguage(ctx context.Context, store prefs.Store, language string) {
	language = strings.TrimSpace(language)
	if language == "" {
		return
	}
	if err := store.Set(ctx, prefs.KeyLanguage, language, prefs.DefaultTTL); err != nil {
		c.log.Warn("persist language", zap.Error(err))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = language
	if c.entity != nil {
		c.view = content.Resolve(*c.entity, language)
	}
}

// SetEntity installs a freshly fetched entity and recomputes the view.
// Entities are fetched per navigation and never cached across entities.
func (c *Controller) SetEntity(e content.Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entity = &e
	lang := c.language
	if lang == "" {
		lang = i18n.DefaultLanguage
	}
	c.view = content.Resolve(e, lang)
}

// Entity returns the current entity, or false when none has loaded.
func (c *Controller) Entity() (content.Entity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entity == nil {
		return content.Entity{}, false
	}
	return *c.entity, true
}

// Resolved returns the view for the current entity and language.
func (c *Controller) Resolved() content.ResolvedView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Submitting reports whether a registration is in flight.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Submit validates in, registers the visitor and persists the outcome.
// Validation runs synchronously and aborts before any network call,
// surfacing the first failing condition. Only an accepted registration
// transitions to Registered and persists the three preferences; any other
// outcome leaves the state untouched and persists nothing. A second submit
// while one is in flight is rejected.
func (c *Controller) Submit(ctx context.Context, store prefs.Store, in Input) error {
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	language := strings.TrimSpace(in.Language)

	if name == "" {
		return &UserError{Msg: MsgNameRequired}
	}
	if phone == "" {
		return &UserError{Msg: MsgPhoneRequired}
	}
	if language == "" {
		return &UserError{Msg: MsgLanguageRequired}
	}

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return &UserError{Msg: MsgSubmitInFlight}
	}
	c.submitting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	receipt, err := c.api.RegisterVisitor(ctx, name, phone, c.clientCode)
	if err != nil {
		c.log.Warn("register visitor", zap.Error(err))
		return &UserError{Msg: MsgGenericFailure}
	}
	if !receipt.Accepted {
		msg := receipt.Message
		if msg == "" {
			msg = MsgGenericFailure
		}
		return &UserError{Msg: msg}
	}

	if err := store.Set(ctx, prefs.KeyLanguage, language, prefs.DefaultTTL); err != nil {
		c.log.Warn("persist language", zap.Error(err))
	}
	if err := store.Set(ctx, prefs.KeyVisitorName, name, prefs.DefaultTTL); err != nil {
		c.log.Warn("persist name", zap.Error(err))
	}
	if err := store.Set(ctx, prefs.KeyVisitorPhone, phone, prefs.DefaultTTL); err != nil {
		c.log.Warn("persist phone", zap.Error(err))
	}

	c.mu.Lock()
	c.name = name
	c.phone = phone
	c.language = language
	c.state = Registered
	if c.entity != nil {
		c.view = content.Resolve(*c.entity, language)
	}
	c.mu.Unlock()
	return nil
}

// PhoneReady is the readiness predicate for debounced landing refreshes.
func PhoneReady(value string) bool {
	return len(strings.TrimSpace(value)) >= MinPhoneLen
}

// OnPhoneEdited schedules a debounced landing refresh for the partial phone
// value. Only the most recently settled value ever triggers a fetch, and a
// slow response for a superseded value is discarded on arrival.
func (c *Controller) OnPhoneEdited(value string) {
	c.gate.Schedule(value, PhoneReady, func(settled string, gen uint64) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		e, err := c.api.FetchLanding(ctx, c.clientCode, settled)
		if err != nil {
			// previous entity stays in place; nothing to overwrite
			c.log.Warn("refresh landing", zap.Error(err))
			return
		}
		if !c.gate.Current(gen) {
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || !c.gate.Current(gen) {
			return
		}
		c.entity = &e
		lang := c.language
		if lang == "" {
			lang = i18n.DefaultLanguage
		}
		c.view = content.Resolve(e, lang)
	})
}

// Close cancels any pending debounce timer and marks in-flight results as
// discardable. Safe to call more than once.
func (c *Controller) Close() {
	c.gate.Cancel()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}
