// Package richtext converts between the HTML bodies stored on entries and
// the plain text used by previews, emptiness checks, import and export.
package richtext

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var (
	paragraphBreaks = map[string]string{
		"p": "\n\n", "div": "\n\n", "blockquote": "\n\n", "pre": "\n\n",
		"h1": "\n\n", "h2": "\n\n", "h3": "\n\n", "h4": "\n\n", "h5": "\n\n", "h6": "\n\n",
		"li": "\n", "br": "\n", "tr": "\n",
	}
	extraNewlines = regexp.MustCompile(`\n{3,}`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// ToText extracts the text content of an HTML fragment. Block elements end
// with a blank line (line breaks and list items with a single newline) so
// that PlainTextToHTML(ToText(x)) keeps the paragraph structure. Trailing
// whitespace is removed.
func ToText(body string) string {
	if body == "" {
		return ""
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(body))
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			out := extraNewlines.ReplaceAllString(sb.String(), "\n\n")
			return strings.TrimRight(out, " \t\r\n")
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br":
				sb.WriteString("\n")
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				sb.WriteString("\n")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				if skip > 0 {
					skip--
				}
				continue
			}
			if sep, ok := paragraphBreaks[tag]; ok && tag != "br" {
				sb.WriteString(sep)
			}
		}
	}
}

// IsBlank reports whether body has no visible text. Editors emit markup such
// as "<p><br></p>" for an empty document; that counts as blank.
func IsBlank(body string) bool {
	return strings.TrimSpace(ToText(body)) == ""
}

// Clean returns "" for a blank body and body unchanged otherwise.
func Clean(body string) string {
	if IsBlank(body) {
		return ""
	}
	return body
}

// PlainTextToHTML turns plain text into HTML paragraphs. Lines separated by a
// blank line become separate <p> elements; every blank line that does not
// close a paragraph yields an empty "<p></p>". Text is HTML-escaped.
func PlainTextToHTML(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var sb strings.Builder
	var buffer []string
	flush := func() {
		if len(buffer) == 0 {
			sb.WriteString("<p></p>")
			return
		}
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(strings.Join(buffer, "\n")))
		sb.WriteString("</p>")
		buffer = buffer[:0]
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		buffer = append(buffer, line)
	}
	if len(buffer) > 0 {
		flush()
	}
	return sb.String()
}

// Preview collapses the text of body onto one line and cuts it to at most
// maxRunes runes, appending "…" when truncated. maxRunes <= 0 disables the
// limit.
func Preview(body string, maxRunes int) string {
	text := strings.TrimSpace(whitespace.ReplaceAllString(ToText(body), " "))
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:maxRunes]), " ") + "…"
}
