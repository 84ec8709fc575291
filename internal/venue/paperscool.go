// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package venue

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pdiddy/confharvest/pkg/types"
)

// openAccessBase resolves relative PDF links on papers.cool listings.
var openAccessBase = "https://openaccess.thecvf.com/"

// PapersCool scrapes venue listings on papers.cool. The listing already
// carries each paper's PDF link, so DirectReference needs no request.
type PapersCool struct {
	name    string
	venue   string
	baseURL string
	fetch   *Fetcher
}

// NewPapersCool returns an adapter for venue (e.g. "CVPR") on papers.cool.
func NewPapersCool(name, venue, baseURL string, f *Fetcher) *PapersCool {
	return &PapersCool{name: name, venue: venue, baseURL: strings.TrimRight(baseURL, "/"), fetch: f}
}

func (c *PapersCool) Name() string { return c.name }

func (c *PapersCool) ListingURL(year int, eventType string) string {
	group := cases.Title(language.English).String(eventType)
	return fmt.Sprintf("%s/venue/%s.%d?group=%s", c.baseURL, c.venue, year, url.QueryEscape(group))
}

func (c *PapersCool) FetchListing(ctx context.Context, year int, eventType string) ([]types.Paper, error) {
	listing := c.ListingURL(year, eventType)
	doc, err := c.fetch.Document(ctx, listing)
	if err != nil {
		return nil, fmt.Errorf("fetching listing: %w", err)
	}

	var papers []types.Paper
	doc.Find("div.panel.paper").Each(func(idx int, panel *goquery.Selection) {
		p, err := c.parsePanel(idx, panel)
		if err != nil {
			c.fetch.Logger.Warn().Err(err).Int("panel", idx).Str("listing", listing).Msg("skipping panel")
			return
		}
		p.Year = year
		p.EventType = eventType
		p.Type = cases.Title(language.English).String(eventType)
		papers = append(papers, p)
	})
	c.fetch.Logger.Info().Int("papers", len(papers)).Str("event_type", eventType).Str("listing", listing).Msg("parsed listing")
	return papers, nil
}

func (c *PapersCool) parsePanel(idx int, panel *goquery.Selection) (types.Paper, error) {
	heading := panel.Find("h2.title").First()
	if heading.Length() == 0 {
		return types.Paper{}, fmt.Errorf("panel has no title")
	}
	link := heading.Find("a.title-link").First()
	title := cleanText(link.Text())
	if title == "" {
		title = cleanText(heading.Text())
	}
	if title == "" {
		return types.Paper{}, fmt.Errorf("panel has an empty title")
	}

	id, _ := panel.Attr("id")
	if id = strings.TrimSpace(id); id == "" {
		id = strconv.Itoa(idx + 1)
	}

	p := types.Paper{
		ID:       id,
		Title:    title,
		Venue:    c.name,
		Abstract: cleanText(panel.Find("p.summary").First().Text()),
	}
	if href, ok := link.Attr("href"); ok {
		p.PageURL = resolveURL(c.baseURL+"/", href)
	}

	authors := cleanText(panel.Find("p.metainfo.authors").First().Text())
	p.Authors = normalizeAuthors(strings.TrimSpace(strings.TrimPrefix(authors, "Authors:")))

	pdf := panel.Find("a.title-pdf").First()
	pdfURL, _ := pdf.Attr("href")
	if strings.TrimSpace(pdfURL) == "" {
		pdfURL, _ = pdf.Attr("data")
	}
	if pdfURL = strings.TrimSpace(pdfURL); pdfURL != "" {
		if !strings.HasPrefix(pdfURL, "http") {
			pdfURL = openAccessBase + strings.TrimLeft(pdfURL, "/")
		}
		p.ListingPDFURL = pdfURL
	}
	return p, nil
}

// DirectReference returns the PDF link carried on the listing.
func (c *PapersCool) DirectReference(_ context.Context, p types.Paper) (string, error) {
	if p.ListingPDFURL == "" {
		return "", ErrNoReference
	}
	return p.ListingPDFURL, nil
}
