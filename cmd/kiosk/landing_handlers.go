package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	mw "finitefield.org/museum-kiosk/internal/middleware"
	"finitefield.org/museum-kiosk/internal/visitor"
)

// landingPage renders the client landing screen. Unregistered devices see
// the onboarding form over the page; registered devices get the localized
// hero and the exhibit-code box.
func (a *app) landingPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientCode := chi.URLParam(r, "clientCode")
	store := a.prefs.Open(w, r)
	ctrl := a.visitors.Acquire(mw.DeviceID(ctx), clientCode)
	ctrl.Mount(ctx, store)

	// explicit language switch via query, e.g. ?hl=hindi
	if hl := strings.ToLower(r.URL.Query().Get("hl")); hl != "" && a.catalog.Supported(hl) {
		ctrl.SetLanguage(ctx, store, hl)
	}

	// fetched fresh per navigation; a failure leaves any previous entity
	// in place and surfaces a generic error state
	phone := ""
	if ctrl.State() == visitor.Registered {
		_, phone = ctrl.Identity()
	}
	entity, err := a.content.FetchLanding(ctx, clientCode, phone)
	if err != nil {
		a.log.Warn("fetch landing", zap.String("client_code", clientCode), zap.Error(err))
	} else {
		ctrl.SetEntity(entity)
	}

	data := a.buildLandingData(r, ctrl, clientCode, landingForm{Language: ctrl.StoredLanguage()}, "")
	data.LoadFailed = err != nil
	a.render(w, "landing", data)
}

// visitorSubmit handles the onboarding form. Validation failures and
// rejected registrations re-render the form with the message; success
// redirects back to the landing page.
func (a *app) visitorSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientCode := chi.URLParam(r, "clientCode")
	store := a.prefs.Open(w, r)
	ctrl := a.visitors.Acquire(mw.DeviceID(ctx), clientCode)
	ctrl.Mount(ctx, store)

	form := landingForm{
		Name:     r.FormValue("name"),
		Phone:    r.FormValue("phone"),
		Language: r.FormValue("language"),
	}
	err := ctrl.Submit(ctx, store, visitor.Input{
		Name:     form.Name,
		Phone:    form.Phone,
		Language: form.Language,
	})
	if err == nil {
		http.Redirect(w, r, "/"+clientCode, http.StatusSeeOther)
		return
	}

	msg := visitor.MsgGenericFailure
	var ue *visitor.UserError
	if errors.As(err, &ue) {
		msg = ue.Msg
	}
	data := a.buildLandingData(r, ctrl, clientCode, form, msg)
	a.render(w, "landing", data)
}

// landingRefresh is polled by the landing page while the visitor edits the
// phone field. Each edit feeds the debounce gate; the response carries the
// currently applied view, which reflects only settled, non-superseded
// fetches.
func (a *app) landingRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientCode := chi.URLParam(r, "clientCode")
	ctrl := a.visitors.Acquire(mw.DeviceID(ctx), clientCode)

	if mobile := r.URL.Query().Get("mobile"); mobile != "" {
		ctrl.OnPhoneEdited(mobile)
	}

	resolved := ctrl.Resolved()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"title":            resolved.Title,
		"description":      resolved.Description,
		"audioTitle":       resolved.AudioTitle,
		"audioDescription": resolved.AudioDescription,
	})
}
