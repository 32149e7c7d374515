package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/kb-sitemap/internal/sitemap"
)

func TestEntryURL(t *testing.T) {
	lastMod := time.Date(2017, 3, 4, 5, 6, 7, 0, time.UTC)
	priority := 0.64
	attrs := json.RawMessage(`{"description":"About us","priority":0.1}`)

	e := NewEntry("pages", "http://example.com/about")
	e.Title = "About"
	e.ChangeFreq = "monthly"
	e.Priority = &priority
	e.LastMod = &lastMod
	e.Images = []string{"http://example.com/team.png"}
	e.Attributes = &attrs

	u, err := e.URL()
	require.NoError(t, err)

	assert.Equal(t, "http://example.com/about", u.Loc())
	assert.Equal(t, "About", u.Title())
	assert.Equal(t, sitemap.Monthly, u.ChangeFreq())
	assert.Equal(t, 0.6, u.Priority())
	assert.Equal(t, lastMod, u.LastMod())
	assert.Equal(t, []string{"http://example.com/team.png"}, u.Strings(ImagesAttribute))
	assert.Equal(t, "About us", u.Get("description", ""))
}

func TestEntryURLDefaults(t *testing.T) {
	e := NewEntry("pages", "http://example.com/")

	u, err := e.URL()
	require.NoError(t, err)

	assert.Equal(t, sitemap.Daily, u.ChangeFreq())
	assert.Equal(t, sitemap.DefaultPriority, u.Priority())
	assert.Equal(t, e.UpdatedAt, u.LastMod())
}

func TestEntryValidate(t *testing.T) {
	bad := 1.5
	e := NewEntry("pages", "http://example.com/")
	e.Priority = &bad
	assert.ErrorIs(t, e.Validate(), sitemap.ErrValidation)

	assert.ErrorIs(t, NewEntry("pages", "").Validate(), sitemap.ErrValidation)
	assert.ErrorIs(t, NewEntry("", "http://example.com/").Validate(), sitemap.ErrValidation)

	broken := json.RawMessage(`[1,2]`)
	e = NewEntry("pages", "http://example.com/")
	e.Attributes = &broken
	assert.Error(t, e.Validate())

	assert.NoError(t, NewEntry("pages", "http://example.com/").Validate())
}

func TestSitemapPathOr(t *testing.T) {
	s := NewSitemap("blog")
	assert.Equal(t, "http://example.com/sitemap-blog.xml", s.PathOr("http://example.com/sitemap-blog.xml"))

	s.Path = "/blog.xml"
	assert.Equal(t, "/blog.xml", s.PathOr("ignored"))
}
