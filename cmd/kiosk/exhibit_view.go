package main

import (
	"finitefield.org/museum-kiosk/internal/content"
	"finitefield.org/museum-kiosk/internal/view"
)

// exhibitData is the exhibit template's view model.
type exhibitData struct {
	Title      string
	ClientCode string
	Code       string
	Language   string
	View       content.ResolvedView

	TitleImage         string
	Images             []string
	AdvertisementImage string
	ISLVideo           string

	Languages  []languageOption
	LoadFailed bool
	NotFound   bool
}

func (a *app) buildExhibitData(clientCode string, entity content.Entity, language string) exhibitData {
	resolved := content.Resolve(entity, language)
	data := exhibitData{
		Title:              "Exhibit",
		ClientCode:         clientCode,
		Code:               entity.Code,
		Language:           language,
		View:               resolved,
		TitleImage:         entity.TitleImage,
		Images:             entity.Images,
		AdvertisementImage: entity.AdvertisementImage,
		ISLVideo:           entity.ISLVideo,
		Languages:          a.languageOptions(entity, language),
	}
	if resolved.Title != "" {
		data.Title = view.SanitizeText(resolved.Title)
	}
	return data
}
