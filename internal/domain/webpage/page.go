// Package webpage holds the text scraped from one operator-configured URL.
package webpage

import "strings"

// Page is the visible text of a fetched URL.
type Page struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Render concatenates pages as "URL: {url}\n{text}\n\n" sections.
func Render(pages []Page) string {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString("URL: ")
		b.WriteString(p.URL)
		b.WriteByte('\n')
		b.WriteString(p.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}
