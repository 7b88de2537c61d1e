package view

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderDescriptionMarkdown(t *testing.T) {
	got := string(RenderDescription("Cast **bronze** figures."))
	assert.Contains(t, got, "<strong>bronze</strong>")
}

func TestRenderDescriptionStripsScripts(t *testing.T) {
	got := string(RenderDescription(`<p>ok</p><script>alert(1)</script>`))
	assert.Contains(t, got, "<p>ok</p>")
	assert.NotContains(t, got, "script")
}

func TestRenderDescriptionEmpty(t *testing.T) {
	assert.Empty(t, string(RenderDescription("   ")))
}

func TestSanitizeText(t *testing.T) {
	got := SanitizeText("<b>Bronze</b> Gallery")
	assert.Equal(t, "Bronze Gallery", got)
	assert.False(t, strings.Contains(got, "<"))
}
