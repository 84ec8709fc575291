// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package venue

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/confharvest/pkg/types"
)

// Virtual scrapes the virtual-conference site layout shared by
// neurips.cc, iclr.cc and icml.cc. Direct references point at OpenReview.
type Virtual struct {
	name    string
	baseURL string
	fetch   *Fetcher
}

// NewVirtual returns a Virtual adapter rooted at baseURL.
func NewVirtual(name, baseURL string, f *Fetcher) *Virtual {
	return &Virtual{name: name, baseURL: strings.TrimRight(baseURL, "/"), fetch: f}
}

func (v *Virtual) Name() string { return v.name }

func (v *Virtual) ListingURL(year int, eventType string) string {
	return fmt.Sprintf("%s/virtual/%d/events/%s", v.baseURL, year, eventType)
}

func (v *Virtual) FetchListing(ctx context.Context, year int, eventType string) ([]types.Paper, error) {
	listing := v.ListingURL(year, eventType)
	doc, err := v.fetch.Document(ctx, listing)
	if err != nil {
		return nil, fmt.Errorf("fetching listing: %w", err)
	}

	var papers []types.Paper
	doc.Find("div.virtual-card").Each(func(idx int, card *goquery.Selection) {
		p, err := v.parseCard(idx, card)
		if err != nil {
			v.fetch.Logger.Warn().Err(err).Int("card", idx).Str("listing", listing).Msg("skipping card")
			return
		}
		p.Year = year
		p.EventType = eventType
		if p.Type == "" {
			p.Type = strings.ToUpper(eventType)
		}
		papers = append(papers, p)
	})
	v.fetch.Logger.Info().Int("papers", len(papers)).Str("event_type", eventType).Str("listing", listing).Msg("parsed listing")
	return papers, nil
}

func (v *Virtual) parseCard(idx int, card *goquery.Selection) (types.Paper, error) {
	link := card.Find("a.small-title").First()
	if link.Length() == 0 {
		return types.Paper{}, fmt.Errorf("card has no title link")
	}
	title := cleanText(link.Text())
	if title == "" {
		return types.Paper{}, fmt.Errorf("card has an empty title")
	}

	href, _ := link.Attr("href")
	href = strings.TrimSpace(href)
	id := strconv.Itoa(idx)
	if seg := path.Base(strings.TrimRight(href, "/")); href != "" && seg != "." && seg != "/" {
		id = seg
	}

	p := types.Paper{
		ID:      id,
		Title:   title,
		PageURL: resolveURL(v.baseURL+"/", href),
		Venue:   v.name,
	}

	// Metadata sits in the siblings that follow the card, up to the next card.
	following := card.NextUntil("div.virtual-card")

	authors := following.Filter("div.author-str").First()
	if authors.Length() == 0 {
		authors = card.Find("div.author-str").First()
	}
	p.Authors = normalizeAuthors(authors.Text())

	if t := following.Filter("div.type_display_name_virtual_card").First(); t.Length() > 0 {
		p.Type = cleanText(t.Text())
	}

	details := following.Filter("details").First()
	if details.Length() == 0 {
		details = card.Find("details").First()
	}
	p.Abstract = cleanText(details.Find("div.text-start").First().Text())
	return p, nil
}

// DirectReference fetches the paper page and returns its OpenReview link.
func (v *Virtual) DirectReference(ctx context.Context, p types.Paper) (string, error) {
	if p.PageURL == "" {
		return "", ErrNoReference
	}
	doc, err := v.fetch.Document(ctx, p.PageURL)
	if err != nil {
		return "", fmt.Errorf("fetching paper page: %w", err)
	}
	if href := openReviewLink(doc); href != "" {
		return resolveURL(p.PageURL, href), nil
	}
	return "", ErrNoReference
}

// openReviewLink applies the link heuristics most specific first.
func openReviewLink(doc *goquery.Document) string {
	if href, ok := doc.Find(`a[title="OpenReview"]`).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		return href
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if strings.Contains(a.Text(), "OpenReview") && strings.Contains(href, "openreview.net") {
			found = href
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	for _, sel := range []string{`a[href*="openreview.net/forum"]`, `a[href*="openreview.net"]`} {
		if href, ok := doc.Find(sel).First().Attr("href"); ok {
			return href
		}
	}
	return ""
}
