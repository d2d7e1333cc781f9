package fetchers

import (
	"html"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var whitespaceRun = regexp.MustCompile(`[ \t]{2,}`)
var blankLineRun = regexp.MustCompile(`\n{3,}`)

// StripHTML converts an HTML job description to plain text. Block elements
// become line breaks so the text keeps paragraph structure for the
// classifier prompt.
func StripHTML(rawHTML string) string {
	decoded := html.UnescapeString(rawHTML)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(decoded))
	if err != nil {
		// Fall back to tag-stripping via regex-free scanner: drop everything
		// between angle brackets. Only reached on malformed input.
		return normalizeText(stripTagsFallback(decoded))
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br, p, div, li, h1, h2, h3, h4, h5, h6, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return normalizeText(doc.Text())
}

// MarkdownFromHTML renders the markdown variant of a description. The
// variant is carried in posting metadata for dedup audit; classification
// always runs on the plain text.
func MarkdownFromHTML(rawHTML string) string {
	converter := md.NewConverter("", true, nil)
	out, err := converter.ConvertString(html.UnescapeString(rawHTML))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func stripTagsFallback(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
