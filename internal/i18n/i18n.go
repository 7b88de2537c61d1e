// Package i18n holds the kiosk's language catalog and maps browser
// Accept-Language headers onto the content API's language tags (the API
// uses full names like "english", not BCP 47 codes).
package i18n

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultLanguage is assumed when no preference is stored.
const DefaultLanguage = "english"

// Language pairs a content-API tag with its ISO code and display name.
type Language struct {
	Tag  string // tag used by the content API, e.g. "english"
	Code string // ISO 639-1 base code, e.g. "en"
	Name string // display name for the selector
}

// Catalog is the set of languages the kiosk offers.
type Catalog struct {
	languages []Language
	fallback  string
	byCode    map[string]string
	byTag     map[string]struct{}
}

// NewCatalog builds a catalog from languages, with fallback as the tag used
// when nothing matches. Empty inputs yield a catalog of just the default.
func NewCatalog(languages []Language, fallback string) *Catalog {
	if len(languages) == 0 {
		languages = []Language{{Tag: DefaultLanguage, Code: "en", Name: "English"}}
	}
	fallback = strings.ToLower(strings.TrimSpace(fallback))
	if fallback == "" {
		fallback = DefaultLanguage
	}
	c := &Catalog{
		languages: languages,
		fallback:  fallback,
		byCode:    map[string]string{},
		byTag:     map[string]struct{}{},
	}
	for _, l := range languages {
		tag := strings.ToLower(strings.TrimSpace(l.Tag))
		if tag == "" {
			continue
		}
		c.byTag[tag] = struct{}{}
		if code := strings.ToLower(strings.TrimSpace(l.Code)); code != "" {
			c.byCode[code] = tag
		}
	}
	return c
}

// Languages returns the catalog entries in declaration order.
func (c *Catalog) Languages() []Language {
	out := make([]Language, len(c.languages))
	copy(out, c.languages)
	return out
}

// Supported reports whether tag names a catalog language (case-insensitive).
func (c *Catalog) Supported(tag string) bool {
	_, ok := c.byTag[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}

// Resolve chooses the best catalog tag for an Accept-Language header, used
// to pre-fill the onboarding language selector before any preference is
// stored.
func (c *Catalog) Resolve(acceptLang string) string {
	type langPref struct {
		base string
		q    float64
		pos  int
	}
	prefs := make([]langPref, 0, 8)
	for i, raw := range strings.Split(acceptLang, ",") {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}
		q := 1.0
		if sc := strings.IndexByte(p, ';'); sc != -1 {
			params := strings.TrimSpace(p[sc+1:])
			p = strings.TrimSpace(p[:sc])
			if strings.HasPrefix(params, "q=") {
				if v, err := parseQValue(strings.TrimPrefix(params, "q=")); err == nil {
					q = v
				}
			}
		}
		base := p
		if dash := strings.IndexByte(p, '-'); dash != -1 {
			base = p[:dash]
		}
		prefs = append(prefs, langPref{base: strings.ToLower(base), q: q, pos: i})
	}
	// q descending, header order breaking ties
	sort.SliceStable(prefs, func(i, j int) bool {
		if prefs[i].q == prefs[j].q {
			return prefs[i].pos < prefs[j].pos
		}
		return prefs[i].q > prefs[j].q
	})
	for _, lp := range prefs {
		if tag, ok := c.byCode[lp.base]; ok {
			return tag
		}
	}
	return c.fallback
}

// parseQValue parses a qvalue per RFC 7231 (0.0 to 1.0).
func parseQValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "1", "1.0", "1.00":
		return 1.0, nil
	case "0", "0.0", "0.00":
		return 0.0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return v, nil
}
