package extract

import (
	"bufio"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// contentSelectors are tried in order when readability cannot identify an
// article body.
var contentSelectors = []string{"main", "article", "[role=main]", ".content", "#content", ".post", ".entry"}

const strippedSelectors = "script,style,nav,footer,header,aside,.ads,.advertisement"

// parseHTML distills an HTML document into plain text and a title.
// go-readability does the heavy lifting; when it cannot identify an
// article body we fall back to a container heuristic on the raw document.
// The title chain is readability title, then <title>, then the first <h1>.
func parseHTML(rawHTML, rawURL string) (text, title string) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || pageURL.Host == "" {
		pageURL = &url.URL{Scheme: "https", Host: "xoptymiz.invalid"}
	}

	parser := readability.NewParser()
	if article, err := parser.Parse(strings.NewReader(rawHTML), pageURL); err == nil {
		text = normalizeText(article.TextContent)
		title = normalizeText(article.Title)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return text, title
	}

	if title == "" {
		title = normalizeText(doc.Find("title").First().Text())
	}
	if title == "" {
		title = normalizeText(doc.Find("h1").First().Text())
	}

	if text == "" {
		doc.Find(strippedSelectors).Remove()
		body := doc.Find("body")
		for _, sel := range contentSelectors {
			if s := doc.Find(sel).First(); s.Length() > 0 {
				body = s
				break
			}
		}
		text = normalizeText(body.Text())
	}

	return text, title
}

// normalizeText collapses all runs of whitespace, including newlines, into
// single spaces.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.Join(strings.Fields(scanner.Text()), " ")
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}
