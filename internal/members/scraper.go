// Package members scrapes the council roster page into member records.
package members

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/civic"
	"github.com/civiclens/council-scraper/internal/fetch"
)

// pageFetcher is the slice of the HTTP client the scraper needs.
type pageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (fetch.Page, error)
}

// Config locates the roster pages.
type Config struct {
	// BaseURL is the site root used to resolve relative links.
	BaseURL string
	// MembersURL is the page listing council members.
	MembersURL string
}

// Scraper extracts council members from the city website.
type Scraper struct {
	fetcher pageFetcher
	cfg     Config
	logger  *zap.Logger
}

// NewScraper builds a roster scraper.
func NewScraper(fetcher pageFetcher, cfg Config, logger *zap.Logger) *Scraper {
	return &Scraper{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger.Named("members"),
	}
}

// Scrape fetches the roster page and returns the members found on it,
// enriched from their detail pages where those exist.
func (s *Scraper) Scrape(ctx context.Context) ([]civic.Member, error) {
	page, err := s.fetcher.Fetch(ctx, s.cfg.MembersURL)
	if err != nil {
		return nil, fmt.Errorf("fetch members page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse members page: %w", err)
	}

	var members []civic.Member
	doc.Find("div.c-person-detail").Each(func(_ int, card *goquery.Selection) {
		member, detailURL, ok := s.extractCard(card)
		if !ok {
			return
		}
		s.enrichFromDetailPage(ctx, &member, detailURL)
		members = append(members, member)
	})

	s.logger.Info("scraped roster", zap.Int("members", len(members)))
	return members, nil
}

// extractCard pulls the fields available on the listing card itself.
// The second return is the member's detail-page URL, empty if the card
// carries none.
func (s *Scraper) extractCard(card *goquery.Selection) (civic.Member, string, bool) {
	name := strings.TrimSpace(card.Find("h3.c-person-detail__name a").First().Text())
	if len(name) < 2 {
		return civic.Member{}, "", false
	}

	member := civic.Member{
		Name: name,
		Seat: "City Council Member",
	}

	if title := strings.TrimSpace(card.Find("div.c-person-detail__title").First().Text()); title != "" {
		member.Seat = title
	}

	if term := strings.TrimSpace(card.Find("div.c-person-detail__term p.field__item").First().Text()); term != "" {
		member.Bio = "Term: " + term
	}

	if src, ok := card.Find("img").First().Attr("src"); ok && src != "" {
		member.PhotoURL = s.resolveURL(src)
	}

	detailURL := ""
	if href, ok := card.Attr("data-href"); ok && href != "" {
		detailURL = s.resolveURL(href)
	}

	return member, detailURL, true
}

// enrichFromDetailPage probes the member's individual page and merges
// whatever extra fields it offers. Failures are logged and ignored,
// the listing-card data stands on its own.
func (s *Scraper) enrichFromDetailPage(ctx context.Context, member *civic.Member, cardURL string) {
	for _, candidate := range s.detailPageCandidates(member.Name, cardURL) {
		page, err := s.fetcher.Fetch(ctx, candidate)
		if err != nil {
			s.logger.Debug("detail page miss",
				zap.String("member", member.Name),
				zap.String("url", candidate),
				zap.Error(err),
			)
			continue
		}
		if err := s.parseDetailPage(page.Body, member); err != nil {
			s.logger.Warn("detail page parse failed",
				zap.String("member", member.Name),
				zap.String("url", candidate),
				zap.Error(err),
			)
			continue
		}
		return
	}
}

// detailPageCandidates lists URLs that may host the member's own page,
// starting with the card link when present.
func (s *Scraper) detailPageCandidates(name, cardURL string) []string {
	var candidates []string
	if cardURL != "" {
		candidates = append(candidates, cardURL)
	}
	slug := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	base := strings.TrimRight(s.cfg.BaseURL, "/")
	candidates = append(candidates,
		base+"/city-council/members/"+slug,
		base+"/city-council/member/"+slug,
		base+"/government/city-council/members/"+slug,
	)
	return candidates
}

func (s *Scraper) parseDetailPage(body []byte, member *civic.Member) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parse detail page: %w", err)
	}

	var bioParts []string
	doc.Find("p, div").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.Children().Length() > 0 {
			return true
		}
		text := strings.TrimSpace(sel.Text())
		if len(text) > 50 {
			bioParts = append(bioParts, text)
		}
		return len(bioParts) < 3
	})
	if bio := strings.Join(bioParts, " "); len(bio) > len(member.Bio) {
		member.Bio = bio
	}

	doc.Find("li, span").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		lower := strings.ToLower(text)
		if strings.Contains(lower, "committee") || strings.Contains(lower, "board") || strings.Contains(lower, "commission") {
			member.Committees = append(member.Committees, text)
		}
	})

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		switch {
		case strings.HasPrefix(href, "mailto:"):
			member.Email = strings.TrimPrefix(href, "mailto:")
		case strings.HasPrefix(href, "tel:"):
			member.Phone = strings.TrimPrefix(href, "tel:")
		case strings.Contains(href, "linkedin.com"):
			member.LinkedIn = href
		case strings.Contains(href, "twitter.com"):
			member.Twitter = href
		}
	})

	return nil
}

// resolveURL makes card-relative links absolute against the base URL.
func (s *Scraper) resolveURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	base, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
