package knowledge

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractHTMLText parses HTML content and returns its visible text with
// scripts and styles stripped. Parse failures return an error so the scanner
// can record a warning and skip the file.
func ExtractHTMLText(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript").Remove()

	var sb strings.Builder
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		sb.WriteString(s.Text())
	})
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		// Fragments without a <body> still carry text at the document level.
		text = doc.Text()
	}

	return normalizeWhitespace(text), nil
}

// normalizeWhitespace collapses runs of blank lines and trims each line
func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		cleaned = append(cleaned, line)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}
