// Package scrape extracts product metadata (OpenGraph and friends) from a
// product page. It is the fallback used when no scraper service is configured.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"WishBoard/internal/cli/model"
)

// maxPageBytes ограничивает размер читаемой страницы.
const maxPageBytes = 5 * 1024 * 1024

// Fetch downloads rawURL with client and extracts its metadata.
func Fetch(ctx context.Context, client *http.Client, rawURL string) (model.LinkMetadata, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return model.LinkMetadata{}, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return model.LinkMetadata{}, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return model.LinkMetadata{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "WishBoard/1.0 (link preview)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return model.LinkMetadata{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return model.LinkMetadata{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return Extract(io.LimitReader(resp.Body, maxPageBytes), resp.Request.URL)
}

// Extract parses an HTML document. Relative image URLs are resolved against base.
func Extract(r io.Reader, base *url.URL) (model.LinkMetadata, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return model.LinkMetadata{}, fmt.Errorf("parse html: %w", err)
	}

	meta := map[string]string{}
	var title string
	var images []string
	seen := map[string]bool{}
	addImage := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		if ref, err := url.Parse(raw); err == nil && base != nil {
			raw = base.ResolveReference(ref).String()
		}
		if !seen[raw] {
			seen[raw] = true
			images = append(images, raw)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				key := attr(n, "property")
				if key == "" {
					key = attr(n, "name")
				}
				key = strings.ToLower(key)
				content := attr(n, "content")
				switch key {
				case "og:image", "og:image:url", "og:image:secure_url", "twitter:image":
					addImage(content)
				case "":
				default:
					if _, ok := meta[key]; !ok {
						meta[key] = strings.TrimSpace(content)
					}
				}
			case "script", "style":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	out := model.LinkMetadata{
		ImageURLs: images,
		Metadata:  map[string]any{},
	}
	out.ProductName = first(meta, "og:title", "twitter:title")
	if out.ProductName == "" {
		out.ProductName = title
	}
	if d := first(meta, "og:description", "description", "twitter:description"); d != "" {
		out.Metadata["description"] = d
	}
	if s := first(meta, "og:site_name"); s != "" {
		out.Metadata["site_name"] = s
	}
	if p := first(meta, "product:price:amount", "og:price:amount"); p != "" {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(p, ",", "."), 64); err == nil {
			out.Price = &v
		}
	}
	out.Currency = strings.ToUpper(first(meta, "product:price:currency", "og:price:currency"))
	return out, nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
