package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testCatalog() *Catalog {
	return NewCatalog([]Language{
		{Tag: "english", Code: "en", Name: "English"},
		{Tag: "hindi", Code: "hi", Name: "हिन्दी"},
		{Tag: "tamil", Code: "ta", Name: "தமிழ்"},
	}, "english")
}

func TestResolveHonorsQValues(t *testing.T) {
	c := testCatalog()
	assert.Equal(t, "hindi", c.Resolve("en;q=0.8, hi;q=0.9"))
}

func TestResolveStripsRegionSubtag(t *testing.T) {
	c := testCatalog()
	assert.Equal(t, "tamil", c.Resolve("ta-IN, fr;q=0.9"))
}

func TestResolveFallsBackWhenNothingMatches(t *testing.T) {
	c := testCatalog()
	assert.Equal(t, "english", c.Resolve("de, fr;q=0.9"))
	assert.Equal(t, "english", c.Resolve(""))
}

func TestSupportedIsCaseInsensitive(t *testing.T) {
	c := testCatalog()
	assert.True(t, c.Supported("Hindi"))
	assert.False(t, c.Supported("klingon"))
}
