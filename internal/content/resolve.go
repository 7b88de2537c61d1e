package content

import "strings"

// ResolvedView is the translation-resolved text and narration for one render
// cycle. It has no identity of its own; it is recomputed whenever the entity
// or the language preference changes.
type ResolvedView struct {
	Title            string
	Description      string
	AudioTitle       string
	AudioDescription string
}

// Resolve selects the displayed fields for language from e's translations.
// Matching is case-insensitive and the first matching entry in sequence
// order wins. Fallback is field-by-field: a translation with only a title
// still contributes its title while the description falls back to the
// entity default. No match, or an empty language, yields the entity's own
// title and description with no audio. Title and Description are never
// empty as long as the entity carries them.
func Resolve(e Entity, language string) ResolvedView {
	view := ResolvedView{
		Title:       e.Title,
		Description: e.Description,
	}
	language = strings.TrimSpace(language)
	if language == "" {
		return view
	}
	for _, t := range e.Translations {
		if !strings.EqualFold(t.Language, language) {
			continue
		}
		if t.Title != "" {
			view.Title = t.Title
		}
		if t.Description != "" {
			view.Description = t.Description
		}
		view.AudioTitle = t.Audio.Title
		view.AudioDescription = t.Audio.Description
		return view
	}
	return view
}

// Languages lists the translation language tags of e in sequence order,
// used to populate the onboarding language selector.
func Languages(e Entity) []string {
	out := make([]string, 0, len(e.Translations))
	for _, t := range e.Translations {
		if t.Language != "" {
			out = append(out, t.Language)
		}
	}
	return out
}
