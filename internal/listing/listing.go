// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package listing fetches course exam listings and extracts exam and
// solution links from them. Each site has its own table layout and is
// handled by a separate Source strategy; both produce a CourseCollection.
package listing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/examfetch/internal/httputil"
	"github.com/pdiddy/examfetch/pkg/types"
)

// Source extracts exam links from one site's course listing page.
type Source interface {
	Site() types.Site
	// ListingURL returns the listing page for a course.
	ListingURL(department, course string) string
	// Parse walks the listing tables. Rows it cannot read are skipped.
	Parse(doc *goquery.Document) *types.CourseCollection
	// Resolve turns a link found on the page into an absolute URL.
	Resolve(link string) (string, error)
	// Extension returns the file extension used when saving link.
	Extension(link string) string
}

// Sources returns the enabled sources in the order they are searched.
func Sources(cfg types.FetchConfig) []Source {
	var out []Source
	if cfg.EnableTBP {
		out = append(out, NewTBP(cfg.TBPBaseURL))
	}
	if cfg.EnableHKN {
		out = append(out, NewHKN(cfg.HKNBaseURL))
	}
	return out
}

// Fetch retrieves a listing page and parses it. cfg.Timeout, when set,
// bounds the whole exchange including reading the page.
func Fetch(ctx context.Context, client *http.Client, pageURL string, cfg types.HTTPConfig) (*goquery.Document, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	resp, err := httputil.Get(ctx, client, pageURL, cfg)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML from %s: %w", pageURL, err)
	}
	return doc, nil
}

// resolve joins a site-relative link onto base. Absolute links pass through.
func resolve(base, link string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL %q: %w", base, err)
	}
	ref, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("parsing link %q: %w", link, err)
	}
	return b.ResolveReference(ref).String(), nil
}

// linkExtension returns the extension of the link's path without the dot,
// or fallback when the path has none.
func linkExtension(link, fallback string) string {
	p := link
	if u, err := url.Parse(link); err == nil {
		p = u.Path
	}
	ext := strings.TrimPrefix(path.Ext(p), ".")
	if ext == "" {
		return fallback
	}
	return strings.ToLower(ext)
}

// cellText returns the whitespace-normalized text of a table cell.
func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// dataRows calls fn for every table row that is not a header row.
func dataRows(doc *goquery.Document, fn func(cells *goquery.Selection, row *goquery.Selection)) {
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.Find("th").Length() > 0 {
			return
		}
		fn(row.ChildrenFiltered("td"), row)
	})
}
