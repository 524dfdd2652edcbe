package session

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// errorBannerClass marks the element the login pages render a rejection in.
const errorBannerClass = "error-msg"

// HTML element name constants for form control detection.
const (
	htmlElementForm     = "form"
	htmlElementInput    = "input"
	htmlElementSelect   = "select"
	htmlElementTextarea = "textarea"
	htmlElementOption   = "option"
	htmlElementOptgroup = "optgroup"
	htmlElementFieldset = "fieldset"
)

// excludedInputTypes are input types a browser never submits as plain fields.
var excludedInputTypes = map[string]bool{
	"submit": true,
	"button": true,
	"reset":  true,
	"image":  true,
	"file":   true,
}

// FormFields is the flat name to value map serialized from every form on a
// page. Hidden fields carry the server's dynamic flow state, so the map is
// posted back as-is with only the credential field overwritten.
type FormFields map[string]string

// Require returns the value of name, or ErrMissingFormField when the page
// did not contain it.
func (f FormFields) Require(name string) (string, error) {
	v, ok := f[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingFormField, name)
	}
	return v, nil
}

// Set overwrites one field.
func (f FormFields) Set(name, value string) {
	f[name] = value
}

// Names returns the field names, sorted.
func (f FormFields) Names() []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Encode renders the fields as an application/x-www-form-urlencoded body.
func (f FormFields) Encode() string {
	values := make(url.Values, len(f))
	for k, v := range f {
		values.Set(k, v)
	}
	return values.Encode()
}

// Page is what the extractor finds in one login page.
type Page struct {
	// Fields holds the serialized controls of all forms. Later forms win
	// on name collisions. Empty when the page has no forms.
	Fields FormFields

	// ErrorBanner is the trimmed text of the error banner elements.
	// Non-empty means the server rejected the previous submission.
	ErrorBanner string
}

// Rejected reports whether the page carries an error banner.
func (p *Page) Rejected() bool {
	return p.ErrorBanner != ""
}

// ExtractForm parses an HTML login page.
//
// Controls are serialized the way a browser submits them: only named
// input, select and textarea elements outside disabled state; button-like
// and file inputs skipped; checkboxes and radios only when checked.
func ExtractForm(content io.Reader) (*Page, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse login page: %w", err)
	}

	page := &Page{Fields: make(FormFields)}
	var banner strings.Builder

	var walk func(n *html.Node, inBanner bool)
	walk = func(n *html.Node, inBanner bool) {
		if n.Type == html.ElementNode {
			if !inBanner && hasClass(n, errorBannerClass) {
				banner.WriteString(textContent(n))
				inBanner = true
			}
			if n.Data == htmlElementForm {
				serializeForm(n, page.Fields)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inBanner)
		}
	}
	walk(doc, false)

	page.ErrorBanner = strings.TrimSpace(banner.String())
	return page, nil
}

// serializeForm appends the successful controls of form to fields.
func serializeForm(form *html.Node, fields FormFields) {
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case htmlElementFieldset:
				if hasAttr(n, "disabled") {
					return
				}
			case htmlElementInput:
				addInput(n, fields)
				return
			case htmlElementSelect:
				addSelect(n, fields)
				return
			case htmlElementTextarea:
				addTextarea(n, fields)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}

	for c := form.FirstChild; c != nil; c = c.NextSibling {
		visit(c)
	}
}

func addInput(n *html.Node, fields FormFields) {
	name := getAttr(n, "name")
	if name == "" || hasAttr(n, "disabled") {
		return
	}

	inputType := strings.ToLower(getAttr(n, "type"))
	if excludedInputTypes[inputType] {
		return
	}

	value := getAttr(n, "value")
	if inputType == "checkbox" || inputType == "radio" {
		if !hasAttr(n, "checked") {
			return
		}
		if !hasAttr(n, "value") {
			value = "on"
		}
	}

	fields[name] = normalizeNewlines(value)
}

func addSelect(n *html.Node, fields FormFields) {
	name := getAttr(n, "name")
	if name == "" || hasAttr(n, "disabled") {
		return
	}

	var options, selected []*html.Node
	var collect func(c *html.Node, disabledGroup bool)
	collect = func(c *html.Node, disabledGroup bool) {
		if c.Type == html.ElementNode {
			switch c.Data {
			case htmlElementOptgroup:
				disabledGroup = disabledGroup || hasAttr(c, "disabled")
			case htmlElementOption:
				options = append(options, c)
				if hasAttr(c, "selected") && !disabledGroup && !hasAttr(c, "disabled") {
					selected = append(selected, c)
				}
				return
			}
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			collect(gc, disabledGroup)
		}
	}
	collect(n, false)

	if hasAttr(n, "multiple") {
		// A multi-select contributes every selected option; the flat map
		// keeps the last one.
		for _, opt := range selected {
			fields[name] = normalizeNewlines(optionValue(opt))
		}
		return
	}

	switch {
	case len(selected) > 0:
		fields[name] = normalizeNewlines(optionValue(selected[len(selected)-1]))
	case len(options) > 0 && !hasAttr(options[0], "disabled"):
		fields[name] = normalizeNewlines(optionValue(options[0]))
	}
}

func addTextarea(n *html.Node, fields FormFields) {
	name := getAttr(n, "name")
	if name == "" || hasAttr(n, "disabled") {
		return
	}
	fields[name] = normalizeNewlines(textContent(n))
}

// optionValue is the value attribute, or the whitespace-collapsed text.
func optionValue(n *html.Node) string {
	if hasAttr(n, "value") {
		return getAttr(n, "value")
	}
	return strings.Join(strings.Fields(textContent(n)), " ")
}

// normalizeNewlines converts any line break to CRLF as browsers do on submit.
func normalizeNewlines(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

// textContent concatenates all text below n.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			walk(gc)
		}
	}
	walk(n)
	return b.String()
}

// hasClass reports whether the class attribute of n lists class.
func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// hasAttr reports whether n carries the attribute key, whatever its value.
func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
