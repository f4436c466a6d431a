package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Document is a Scope over static HTML, used for saved pages and tests.
type Document struct {
	doc *goquery.Document
}

// NewDocument parses html.
func NewDocument(html string) (*Document, error) {
	return NewDocumentFromReader(strings.NewReader(html))
}

func NewDocumentFromReader(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{doc: doc}, nil
}

func (d *Document) First(selector string) (Element, bool, error) {
	return first(d.doc.Selection, selector)
}

type selection struct {
	s *goquery.Selection
}

func (e selection) First(selector string) (Element, bool, error) {
	return first(e.s, selector)
}

// Text approximates rendered text: whitespace runs collapse to one space
// and script/style content is skipped.
func (e selection) Text() (string, error) {
	clone := e.s.Clone()
	clone.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(clone.Text()), " "), nil
}

func (e selection) Attr(name string) (string, bool, error) {
	v, ok := e.s.Attr(name)
	return v, ok, nil
}

func first(s *goquery.Selection, selector string) (Element, bool, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, false, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	match := s.FindMatcher(matcher).First()
	if match.Length() == 0 {
		return nil, false, nil
	}
	return selection{s: match}, true, nil
}
