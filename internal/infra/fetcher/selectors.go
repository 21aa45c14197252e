package fetcher

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// contentSelectors are tried in order; the first one yielding paragraphs wins.
var contentSelectors = []string{
	"article",
	"main",
	"[role=main]",
	".post-content",
	".entry-content",
	".article-body",
	"#content",
}

// extractWithSelectors pulls paragraph text out of the common content containers,
// falling back to every paragraph of the page.
func extractWithSelectors(r io.Reader) (*Article, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, nav, header, footer, aside, form").Remove()

	article := &Article{Title: pageTitle(doc)}
	for _, sel := range contentSelectors {
		if text := paragraphs(doc.Find(sel)); text != "" {
			article.Text = text
			return article, nil
		}
	}
	article.Text = paragraphs(doc.Selection)
	return article, nil
}

func paragraphs(s *goquery.Selection) string {
	var parts []string
	s.Find("p, h1, h2, h3, li").Each(func(_ int, p *goquery.Selection) {
		if t := normalizeWhitespace(p.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}

func pageTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	return normalizeWhitespace(doc.Find("title").First().Text())
}
