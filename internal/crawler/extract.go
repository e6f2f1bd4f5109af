package crawler

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/corpusmill/corpusmill/internal/record"
)

// MinParagraphChars drops paragraph stubs at crawl time. The cleaner
// applies its own, stricter threshold later.
const MinParagraphChars = 30

// ParsePage extracts a raw page record and the outgoing links from one
// fetched HTML document. Relative links are resolved against pageURL.
func ParsePage(pageURL, html string) (record.Raw, []string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return record.Raw{}, nil, fmt.Errorf("parse page: %w", err)
	}

	raw := record.Raw{
		URL:       pageURL,
		PageType:  ClassifyPage(doc.Text()),
		Title:     strings.TrimSpace(doc.Find("title").First().Text()),
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		raw.MetaDescription = desc
	}

	// Headings grouped by level, h1 first, matching reading priority in
	// the cleaner.
	for level := 1; level <= 6; level++ {
		doc.Find(fmt.Sprintf("h%d", level)).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text != "" {
				raw.Headings = append(raw.Headings, record.Heading{Level: level, Text: text})
			}
		})
	}

	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(text) > MinParagraphChars {
			raw.Paragraphs = append(raw.Paragraphs, text)
		}
	})

	base, _ := url.Parse(pageURL)

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" {
			return
		}
		raw.Images = append(raw.Images, record.Image{
			Src: resolveURL(base, src),
			Alt: s.AttrOr("alt", ""),
		})
	})

	doc.Find("ul, ol").Each(func(_ int, s *goquery.Selection) {
		var items []string
		s.Find("li").Each(func(_ int, li *goquery.Selection) {
			if text := strings.TrimSpace(li.Text()); text != "" {
				items = append(items, text)
			}
		})
		if len(items) > 0 {
			raw.Lists = append(raw.Lists, items)
		}
	})

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		resolved := resolveURL(base, href)
		if resolved != "" {
			links = append(links, resolved)
		}
	})

	return raw, links, nil
}

// resolveURL makes href absolute against base.
func resolveURL(base *url.URL, href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if !parsed.IsAbs() && base != nil {
		parsed = base.ResolveReference(parsed)
	}
	return parsed.String()
}
