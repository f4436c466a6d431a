package browser

import (
	"testing"
	"time"

	"github.com/maltedev/price-scraper/internal/dom"
	"github.com/maltedev/price-scraper/internal/scraper"
	"github.com/stretchr/testify/assert"
)

var (
	_ scraper.Page = (*Page)(nil)
	_ dom.Scope    = pageScope{}
	_ dom.Element  = element{}
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.True(t, opts.Headless)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.Equal(t, 1920, opts.ViewportWidth)
	assert.Equal(t, 1080, opts.ViewportHeight)
	assert.Equal(t, "es-PE", opts.Locale)
	assert.Equal(t, "America/Lima", opts.TimezoneID)
	assert.Contains(t, opts.UserAgent, "Chrome/91.0.4472.124")
}

func TestOptions_Headers(t *testing.T) {
	opts := DefaultOptions()
	opts.AcceptLanguage = "es-PE"

	h := opts.headers()
	assert.Equal(t, "es-PE", h["Accept-Language"])
	assert.NotEmpty(t, h["Accept"])
	assert.NotContains(t, opts.ExtraHeaders, "Accept-Language", "defaults are not mutated")
}

func TestMilliseconds(t *testing.T) {
	nav := milliseconds(30 * time.Second)
	assert.Equal(t, 30000.0, *nav)

	settle := milliseconds(4 * time.Second)
	assert.Equal(t, 4000.0, *settle)
}
