package imapclient

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var (
	whitespaceRegex = regexp.MustCompile(`[^\S\n]+`)
	newlineRegex    = regexp.MustCompile(`\n{3,}`)
)

// sanitizePolicy strips everything except the formatting bluemonday's
// UGC policy allows, so body_html is safe to render in the web console
// even though rendering itself is out of this repo's scope.
var sanitizePolicy = bluemonday.UGCPolicy()

// SanitizeHTML returns body_html with scripts, styles and dangerous
// attributes stripped, suitable for persisting alongside the raw text.
func SanitizeHTML(html string) string {
	if html == "" {
		return ""
	}
	return sanitizePolicy.Sanitize(html)
}

// PlainTextFromHTML derives a readable plain-text rendering of an
// HTML-only message body: the text part is always preferred, with this
// used only as the HTML fallback. It tries goquery's text extraction
// first, since it collapses markup cleanly, and falls back to an
// HTML-to-Markdown conversion when goquery can't parse the fragment.
func PlainTextFromHTML(html string) string {
	if html == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		doc.Find("script, style").Remove()
		text := doc.Text()
		text = whitespaceRegex.ReplaceAllString(text, " ")
		text = newlineRegex.ReplaceAllString(text, "\n\n")
		text = strings.TrimSpace(text)
		if text != "" {
			return text
		}
	}

	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(md)
}
