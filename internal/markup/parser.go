// Package markup implements the scoped selector engine used by the
// source adapters. Chart pages are a fixed, known shape, so the engine
// supports only the selector forms the adapters need: class-contains
// (".foo", ".foo.bar", "tag.foo"), attribute-contains ("tag[attr]",
// `tag[attr="value"]`), bare tag names, and descendant combination.
// Selectors are translated onto goquery, which parses real HTML and
// removes the nesting-mismatch risk a regex scanner would carry.
package markup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Document wraps a parsed HTML document.
type Document struct {
	doc *goquery.Document
}

// Element is one matched node. Scoped sub-queries search only within
// the element's subtree.
type Element struct {
	sel *goquery.Selection
}

// Parse builds a Document from raw markup. Parsing never fails: invalid
// input yields a document that matches nothing.
func Parse(html string) *Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		empty, _ := goquery.NewDocumentFromReader(strings.NewReader(""))
		return &Document{doc: empty}
	}
	return &Document{doc: doc}
}

// SelectAll returns every element matching the selector, in document
// order. An unsupported or empty selector matches nothing.
func (d *Document) SelectAll(selector string) []*Element {
	if d == nil || d.doc == nil {
		return nil
	}
	return find(d.doc.Selection, selector)
}

// SelectOne returns the first match or nil.
func (d *Document) SelectOne(selector string) *Element {
	return first(d.SelectAll(selector))
}

// Text returns the tag-stripped, whitespace-trimmed inner content.
func (e *Element) Text() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.sel.Text())
}

// Attr returns the named attribute on the element's opening tag, or ""
// when absent.
func (e *Element) Attr(name string) string {
	if e == nil {
		return ""
	}
	return e.sel.AttrOr(name, "")
}

// SelectAll runs a scoped query within this element's subtree.
func (e *Element) SelectAll(selector string) []*Element {
	if e == nil {
		return nil
	}
	return find(e.sel, selector)
}

// SelectOne returns the first scoped match or nil.
func (e *Element) SelectOne(selector string) *Element {
	return first(e.SelectAll(selector))
}

// find compiles the translated selector and runs it against the given
// scope. Selectors that fail to compile match nothing instead of
// panicking inside goquery.
func find(scope *goquery.Selection, selector string) []*Element {
	matcher, err := cascadia.Compile(Translate(selector))
	if err != nil {
		return nil
	}
	return collect(scope.FindMatcher(matcher))
}

func collect(sel *goquery.Selection) []*Element {
	if sel == nil || sel.Length() == 0 {
		return nil
	}
	out := make([]*Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{sel: s})
	})
	return out
}

func first(elements []*Element) *Element {
	if len(elements) == 0 {
		return nil
	}
	return elements[0]
}

// Translate rewrites a chart-page selector into CSS understood by
// cascadia. Class terms become substring matches ([class*="x"]) and
// attribute values become substring matches as well, preserving the
// contains semantics the adapters rely on.
func Translate(selector string) string {
	parts := strings.Fields(selector)
	if len(parts) == 0 {
		return "__no_match__"
	}
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, translatePart(part))
	}
	return strings.Join(out, " ")
}

func translatePart(part string) string {
	if open := strings.IndexByte(part, '['); open >= 0 && strings.HasSuffix(part, "]") {
		return translateAttr(part[:open], part[open+1:len(part)-1])
	}
	if strings.HasPrefix(part, ".") {
		return classContains("", part)
	}
	if dot := strings.IndexByte(part, '.'); dot > 0 {
		return classContains(part[:dot], part[dot:])
	}
	return part
}

// classContains turns ".a.b" into [class*="a"][class*="b"], optionally
// anchored to a tag name.
func classContains(tag, classes string) string {
	var b strings.Builder
	b.WriteString(tag)
	for _, cls := range strings.Split(classes, ".") {
		if cls == "" {
			continue
		}
		b.WriteString(`[class*="`)
		b.WriteString(cls)
		b.WriteString(`"]`)
	}
	return b.String()
}

func translateAttr(tag, inner string) string {
	attr, value, hasValue := strings.Cut(inner, "=")
	if !hasValue {
		return tag + "[" + attr + "]"
	}
	value = strings.Trim(value, `"'`)
	return tag + `[` + attr + `*="` + value + `"]`
}
