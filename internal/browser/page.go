package browser

import (
	"fmt"
	"time"

	"github.com/maltedev/price-scraper/internal/dom"
	"github.com/playwright-community/playwright-go"
)

// actionTimeout bounds reads on an element that was already counted, so a
// node detached in between fails fast instead of waiting for the page
// default timeout.
const actionTimeout = 5 * time.Second

// Page adapts a playwright page to the scraper. Only selector strings and
// attribute names are sent to the browser.
type Page struct {
	page playwright.Page
}

func NewPage(page playwright.Page) *Page {
	return &Page{page: page}
}

func (p *Page) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   milliseconds(timeout),
	})
	return err
}

func (p *Page) URL() string {
	return p.page.URL()
}

func (p *Page) WaitForSelector(selector string, timeout time.Duration) error {
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: milliseconds(timeout),
	})
	return err
}

func (p *Page) Root() dom.Scope {
	return pageScope{page: p.page}
}

func (p *Page) Close() error {
	return p.page.Close()
}

type pageScope struct {
	page playwright.Page
}

func (s pageScope) First(selector string) (dom.Element, bool, error) {
	return first(s.page.Locator(selector))
}

type element struct {
	loc playwright.Locator
}

func (e element) First(selector string) (dom.Element, bool, error) {
	return first(e.loc.Locator(selector))
}

func (e element) Text() (string, error) {
	return e.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: milliseconds(actionTimeout)})
}

// Attr reports an empty attribute as absent; playwright does not tell the
// two apart.
func (e element) Attr(name string) (string, bool, error) {
	v, err := e.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: milliseconds(actionTimeout)})
	if err != nil {
		return "", false, err
	}
	return v, v != "", nil
}

func first(loc playwright.Locator) (dom.Element, bool, error) {
	loc = loc.First()
	count, err := loc.Count()
	if err != nil {
		return nil, false, fmt.Errorf("failed to query selector: %w", err)
	}
	if count == 0 {
		return nil, false, nil
	}
	return element{loc: loc}, true, nil
}

func milliseconds(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}
