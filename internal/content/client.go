// Package content talks to the remote content API: landing pages keyed by
// client code, exhibits keyed by exhibit code, and visitor registration.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finitefield.org/museum-kiosk/internal/metrics"
)

const defaultTimeout = 8 * time.Second

// Failure reasons attached for logging; callers render a generic error
// state regardless of the reason.
const (
	ReasonTransport = "transport"
	ReasonStatus    = "status"
	ReasonDecode    = "decode"
)

// ErrNotFound reports a 404 from the remote API, so callers can tell a
// missing entity from an outage.
var ErrNotFound = errors.New("content: not found")

// Failure normalizes transport errors, non-2xx responses and malformed
// bodies into a single typed error at the client boundary.
type Failure struct {
	Reason     string
	RawMessage string
	StatusCode int
}

func (f *Failure) Error() string {
	if f.RawMessage == "" {
		return "content: " + f.Reason
	}
	return "content: " + f.Reason + ": " + f.RawMessage
}

func (f *Failure) Unwrap() error {
	if f.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Entity is a landing page or exhibit record fetched from the remote API.
// Read-only to the kiosk; discarded once a newer fetch resolves.
type Entity struct {
	ID          string
	Title       string
	Description string

	// media fields; landing pages use DisplayImage, exhibits the rest
	DisplayImage       string
	TitleImage         string
	Images             []string
	AdvertisementImage string
	ISLVideo           string

	Code      string
	ClientID  string
	UniqueURL string
	QRCode    string

	Translations []Translation
	CreatedAt    time.Time
}

// Translation is a language-specific override of an entity's title,
// description and narration audio. Language tags are unique per entity.
type Translation struct {
	Language    string
	Title       string
	Description string
	Audio       AudioURLs
}

// AudioURLs carries optional narration clips for the translated fields.
type AudioURLs struct {
	Title       string
	Description string
}

// Receipt is the outcome of a visitor registration call. Accepted follows
// the transport status code; Message is human-readable detail only.
type Receipt struct {
	Accepted bool
	Message  string
}

// Client issues content lookups and registration calls against the remote
// API. When baseURL is empty, the client serves fake data for local work.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs an API client rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// FetchLanding loads the landing page for clientCode. A non-empty phone is
// passed as the mobile query parameter for personalized landings.
func (c *Client) FetchLanding(ctx context.Context, clientCode, phone string) (Entity, error) {
	if c == nil || c.baseURL == "" {
		return fakeLanding(clientCode), nil
	}
	endpoint, err := url.JoinPath(c.baseURL, "api", "landing", clientCode)
	if err != nil {
		metrics.Fetch("landing", "error")
		return Entity{}, &Failure{Reason: ReasonTransport, RawMessage: err.Error()}
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		endpoint += "?mobile=" + url.QueryEscape(phone)
	}

	var payload landingPayload
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		metrics.Fetch("landing", "error")
		return Entity{}, err
	}
	metrics.Fetch("landing", "ok")
	return payload.toEntity(), nil
}

// FetchExhibit loads the exhibit for code. The API wraps the entity in an
// {"exhibit": ...} envelope.
func (c *Client) FetchExhibit(ctx context.Context, code string) (Entity, error) {
	if c == nil || c.baseURL == "" {
		return fakeExhibit(code), nil
	}
	endpoint, err := url.JoinPath(c.baseURL, "api", "exhibit", code)
	if err != nil {
		metrics.Fetch("exhibit", "error")
		return Entity{}, &Failure{Reason: ReasonTransport, RawMessage: err.Error()}
	}

	var payload struct {
		Exhibit exhibitPayload `json:"exhibit"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		metrics.Fetch("exhibit", "error")
		return Entity{}, err
	}
	metrics.Fetch("exhibit", "ok")
	return payload.Exhibit.toEntity(), nil
}

// RegisterVisitor submits the onboarding form. A 204 response is a success
// without a body; any other 2xx carries an optional message. The call is a
// single request/response; retries are the caller's policy.
func (c *Client) RegisterVisitor(ctx context.Context, name, phone, clientCode string) (Receipt, error) {
	if c == nil || c.baseURL == "" {
		return fakeReceipt(name), nil
	}
	endpoint, err := url.JoinPath(c.baseURL, "api", "client", "visitor-data")
	if err != nil {
		metrics.Registration("error")
		return Receipt{}, &Failure{Reason: ReasonTransport, RawMessage: err.Error()}
	}

	body := map[string]string{
		"name":   strings.TrimSpace(name),
		"mobile": strings.TrimSpace(phone),
	}
	if clientCode = strings.TrimSpace(clientCode); clientCode != "" {
		body["clientLink"] = clientCode
	}
	payload, err := json.Marshal(body)
	if err != nil {
		metrics.Registration("error")
		return Receipt{}, &Failure{Reason: ReasonTransport, RawMessage: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		metrics.Registration("error")
		return Receipt{}, &Failure{Reason: ReasonTransport, RawMessage: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.Registration("error")
		return Receipt{}, &Failure{Reason: ReasonTransport, RawMessage: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		metrics.Registration("ok")
		return Receipt{Accepted: true}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.Registration("rejected")
		return Receipt{}, &Failure{
			Reason:     ReasonStatus,
			RawMessage: fmt.Sprintf("status %d: %s", resp.StatusCode, drainBody(resp.Body)),
			StatusCode: resp.StatusCode,
		}
	}

	var out struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		metrics.Registration("error")
		return Receipt{}, &Failure{Reason: ReasonDecode, RawMessage: err.Error()}
	}
	metrics.Registration("ok")
	return Receipt{Accepted: true, Message: strings.TrimSpace(out.Message)}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &Failure{Reason: ReasonTransport, RawMessage: err.Error()}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Failure{Reason: ReasonTransport, RawMessage: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Failure{
			Reason:     ReasonStatus,
			RawMessage: fmt.Sprintf("status %d: %s", resp.StatusCode, drainBody(resp.Body)),
			StatusCode: resp.StatusCode,
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &Failure{Reason: ReasonDecode, RawMessage: err.Error()}
	}
	return nil
}

func drainBody(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}

type translationPayload struct {
	ID        string `json:"_id"`
	Language  string `json:"language"`
	Title     string `json:"title"`
	Desc      string `json:"description"`
	AudioURLs struct {
		Title string `json:"title"`
		Desc  string `json:"description"`
	} `json:"audioUrls"`
}

func (p translationPayload) toTranslation() Translation {
	return Translation{
		Language:    strings.TrimSpace(p.Language),
		Title:       strings.TrimSpace(p.Title),
		Description: strings.TrimSpace(p.Desc),
		Audio: AudioURLs{
			Title:       strings.TrimSpace(p.AudioURLs.Title),
			Description: strings.TrimSpace(p.AudioURLs.Desc),
		},
	}
}

type landingPayload struct {
	ID           string               `json:"_id"`
	ClientID     string               `json:"clientId"`
	DisplayImage string               `json:"displayImage"`
	Title        string               `json:"title"`
	Desc         string               `json:"description"`
	UniqueURL    string               `json:"uniqueUrl"`
	QRCode       string               `json:"qrCode"`
	Translations []translationPayload `json:"translations"`
}

func (p landingPayload) toEntity() Entity {
	e := Entity{
		ID:           strings.TrimSpace(p.ID),
		ClientID:     strings.TrimSpace(p.ClientID),
		DisplayImage: strings.TrimSpace(p.DisplayImage),
		Title:        strings.TrimSpace(p.Title),
		Description:  strings.TrimSpace(p.Desc),
		UniqueURL:    strings.TrimSpace(p.UniqueURL),
		QRCode:       strings.TrimSpace(p.QRCode),
	}
	for _, t := range p.Translations {
		e.Translations = append(e.Translations, t.toTranslation())
	}
	return e
}

type exhibitPayload struct {
	ID       string               `json:"_id"`
	Title    string               `json:"title"`
	Desc     string               `json:"description"`
	TitleImg string               `json:"titleImage"`
	Images   []string             `json:"images"`
	Code     string               `json:"code"`
	ClientID string               `json:"clientId"`
	AdImage  string               `json:"advertisementImage"`
	ISLVideo string               `json:"islVideo"`
	Created  string               `json:"createdAt"`
	Trans    []translationPayload `json:"translations"`
}

func (p exhibitPayload) toEntity() Entity {
	e := Entity{
		ID:                 strings.TrimSpace(p.ID),
		Title:              strings.TrimSpace(p.Title),
		Description:        strings.TrimSpace(p.Desc),
		TitleImage:         strings.TrimSpace(p.TitleImg),
		Images:             p.Images,
		Code:               strings.TrimSpace(p.Code),
		ClientID:           strings.TrimSpace(p.ClientID),
		AdvertisementImage: strings.TrimSpace(p.AdImage),
		ISLVideo:           strings.TrimSpace(p.ISLVideo),
		CreatedAt:          parseTime(p.Created),
	}
	for _, t := range p.Trans {
		e.Translations = append(e.Translations, t.toTranslation())
	}
	return e
}

func parseTime(val string) time.Time {
	val = strings.TrimSpace(val)
	if val == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC3339Nano, time.RFC3339}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, val); err == nil {
			return ts
		}
	}
	return time.Time{}
}
