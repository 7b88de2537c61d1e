package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/museum-kiosk/internal/content"
	"finitefield.org/museum-kiosk/internal/prefs"
)

// exhibitPage renders one exhibit in the device's stored language. The
// exhibit is fetched fresh per navigation; translation resolution happens
// locally so a language switch never refetches.
func (a *app) exhibitPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientCode := chi.URLParam(r, "clientCode")
	code := chi.URLParam(r, "code")
	store := a.prefs.Open(w, r)

	language, _ := store.Get(ctx, prefs.KeyLanguage)
	if hl := strings.ToLower(r.URL.Query().Get("hl")); hl != "" && a.catalog.Supported(hl) {
		language = hl
		if err := store.Set(ctx, prefs.KeyLanguage, hl, 0); err != nil {
			a.log.Warn("persist language", zap.Error(err))
		}
	}
	if language == "" {
		language = a.catalog.Resolve(r.Header.Get("Accept-Language"))
	}

	entity, err := a.content.FetchExhibit(ctx, code)
	if err != nil {
		a.log.Warn("fetch exhibit",
			zap.String("client_code", clientCode),
			zap.String("exhibit_code", code),
			zap.Error(err))
		notFound := errors.Is(err, content.ErrNotFound)
		if notFound {
			w.WriteHeader(http.StatusNotFound)
		} else {
			w.WriteHeader(http.StatusBadGateway)
		}
		a.render(w, "exhibit", exhibitData{
			Title:      "Exhibit",
			ClientCode: clientCode,
			Code:       code,
			LoadFailed: true,
			NotFound:   notFound,
		})
		return
	}

	a.render(w, "exhibit", a.buildExhibitData(clientCode, entity, language))
}
