package main

import (
	"net/http"
	"net/url"
	"strings"

	mw "finitefield.org/museum-kiosk/internal/middleware"
)

// scanData is the scan template's view model.
type scanData struct {
	Title     string
	CSRFToken string
	Error     string
}

// scanPage renders the entry screen: a QR scanner viewport with a manual
// code box underneath.
func (a *app) scanPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, "scan", scanData{
		Title:     "Scan",
		CSRFToken: mw.CSRFToken(r.Context()),
	})
}

// scanSubmit resolves a decoded QR payload (or a hand-typed code) to a
// kiosk route. QR codes encode either a full exhibit URL or a bare code;
// bare codes need the client selected on the form.
func (a *app) scanSubmit(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.FormValue("code"))
	clientCode := strings.TrimSpace(r.FormValue("clientCode"))

	target := resolveScan(raw, clientCode)
	if target == "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		a.render(w, "scan", scanData{
			Title:     "Scan",
			CSRFToken: mw.CSRFToken(r.Context()),
			Error:     "Could not read that code. Try again or type it in.",
		})
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// resolveScan maps a scanned payload to a local path. It accepts full
// URLs whose path is /{client}/exhibit/{code} or /{client}, local paths of
// the same shape, and bare codes paired with an explicit client.
func resolveScan(raw, clientCode string) string {
	if raw == "" {
		return ""
	}

	path := raw
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		path = u.Path
	}
	if strings.HasPrefix(path, "/") {
		parts := strings.Split(strings.Trim(path, "/"), "/")
		switch {
		case len(parts) == 3 && parts[1] == "exhibit" && parts[0] != "" && parts[2] != "":
			return "/" + url.PathEscape(parts[0]) + "/exhibit/" + url.PathEscape(parts[2])
		case len(parts) == 1 && parts[0] != "":
			return "/" + url.PathEscape(parts[0])
		}
		return ""
	}

	// bare exhibit code; needs a client to route under
	if clientCode == "" || strings.ContainsAny(raw, "/ ") {
		return ""
	}
	return "/" + url.PathEscape(clientCode) + "/exhibit/" + url.PathEscape(raw)
}
