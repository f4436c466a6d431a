// Package dom is the narrow query surface the extractor needs from a
// rendered page. Only selector strings and attribute names go through it,
// so a browser-backed scope never receives anything but plain data.
package dom

import "strings"

// Scope is a place to look for elements: a whole page or one element.
type Scope interface {
	// First returns the first element under the scope matching a single
	// (non-union) CSS selector. ok is false when nothing matches.
	First(selector string) (el Element, ok bool, err error)
}

// Element is a matched node. It is also a Scope for nested lookups.
type Element interface {
	Scope
	// Text is the rendered text of the element, untrimmed.
	Text() (string, error)
	// Attr returns the attribute value and whether it is present.
	Attr(name string) (string, bool, error)
}

// SplitUnion splits a comma-joined selector into its alternatives in
// written order. Commas inside brackets, parentheses or quotes do not split.
// Empty alternatives are dropped.
func SplitUnion(selector string) []string {
	var (
		parts []string
		depth int
		quote rune
		start int
	)

	for i, r := range selector {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '[' || r == '(':
			depth++
		case r == ']' || r == ')':
			if depth > 0 {
				depth--
			}
		case r == ',' && depth == 0:
			if part := strings.TrimSpace(selector[start:i]); part != "" {
				parts = append(parts, part)
			}
			start = i + 1
		}
	}

	if part := strings.TrimSpace(selector[start:]); part != "" {
		parts = append(parts, part)
	}

	return parts
}

// FirstOf resolves a possibly-union selector: each alternative is tried in
// order and the first one matching an element wins.
func FirstOf(scope Scope, selector string) (Element, bool, error) {
	for _, alt := range SplitUnion(selector) {
		el, ok, err := scope.First(alt)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return el, true, nil
		}
	}
	return nil, false, nil
}
