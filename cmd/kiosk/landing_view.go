package main

import (
	"net/http"

	mw "finitefield.org/museum-kiosk/internal/middleware"
	"finitefield.org/museum-kiosk/internal/content"
	"finitefield.org/museum-kiosk/internal/view"
	"finitefield.org/museum-kiosk/internal/visitor"
)

// landingForm carries submitted (or pre-filled) onboarding values back to
// the template so the visitor does not retype them after an error.
type landingForm struct {
	Name     string
	Phone    string
	Language string
}

// languageOption is one selector entry.
type languageOption struct {
	Tag      string
	Name     string
	Selected bool
}

// landingData is the landing template's view model.
type landingData struct {
	Title          string
	ClientCode     string
	CSRFToken      string
	ShowOnboarding bool
	Submitting     bool
	FormError      string
	Form           landingForm
	Languages      []languageOption
	View           content.ResolvedView
	BackgroundURL  string
	LoadFailed     bool
}

func (a *app) buildLandingData(r *http.Request, ctrl *visitor.Controller, clientCode string, form landingForm, formError string) landingData {
	if form.Language == "" {
		// pre-fill from the browser when nothing is stored
		form.Language = a.catalog.Resolve(r.Header.Get("Accept-Language"))
	}
	data := landingData{
		Title:          "Welcome",
		ClientCode:     clientCode,
		CSRFToken:      mw.CSRFToken(r.Context()),
		ShowOnboarding: ctrl.State() != visitor.Registered,
		Submitting:     ctrl.Submitting(),
		FormError:      formError,
		Form:           form,
		View:           ctrl.Resolved(),
	}
	if entity, ok := ctrl.Entity(); ok {
		data.BackgroundURL = entity.DisplayImage
		data.Languages = a.languageOptions(entity, form.Language)
	} else {
		data.Languages = a.languageOptions(content.Entity{}, form.Language)
	}
	if data.View.Title != "" {
		data.Title = view.SanitizeText(data.View.Title)
	}
	return data
}

// languageOptions prefers the entity's own translation tags (what the
// remote system can actually serve) and falls back to the kiosk catalog.
func (a *app) languageOptions(entity content.Entity, selected string) []languageOption {
	tags := content.Languages(entity)
	if len(tags) == 0 {
		for _, l := range a.catalog.Languages() {
			tags = append(tags, l.Tag)
		}
	}
	options := make([]languageOption, 0, len(tags))
	for _, tag := range tags {
		name := tag
		for _, l := range a.catalog.Languages() {
			if l.Tag == tag {
				name = l.Name
				break
			}
		}
		options = append(options, languageOption{
			Tag:      tag,
			Name:     name,
			Selected: tag == selected,
		})
	}
	return options
}
