// Package minutes walks the documents portal, extracts decisions from
// meeting minutes, and attributes them to council members.
package minutes

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/civic"
	"github.com/civiclens/council-scraper/internal/fetch"
)

// renderer is the slice of the headless browser the walker needs.
type renderer interface {
	Render(ctx context.Context, rawURL string) (fetch.Page, error)
}

// BrowseConfig locates the documents portal.
type BrowseConfig struct {
	// BaseURL is the portal root, e.g. https://documents.example.gov.
	BaseURL string
	// BrowseURL is the minutes repository's top-level browse page.
	BrowseURL string
	// MaxFolders bounds how many archive folders are visited per run.
	MaxFolders int
}

// Browser discovers meeting-minutes documents in the portal. The
// portal builds its folder listing with JavaScript, so every page goes
// through the renderer.
type Browser struct {
	renderer renderer
	cfg      BrowseConfig
	logger   *zap.Logger
}

// NewBrowser builds a portal walker.
func NewBrowser(r renderer, cfg BrowseConfig, logger *zap.Logger) *Browser {
	if cfg.MaxFolders <= 0 {
		cfg.MaxFolders = 5
	}
	return &Browser{
		renderer: r,
		cfg:      cfg,
		logger:   logger.Named("browse"),
	}
}

// ListMeetings walks the archive folders and returns the minutes
// documents found, newest first. Documents whose titles carry no
// parseable date sort last.
func (b *Browser) ListMeetings(ctx context.Context) ([]civic.Meeting, error) {
	page, err := b.renderer.Render(ctx, b.cfg.BrowseURL)
	if err != nil {
		return nil, fmt.Errorf("render browse page: %w", err)
	}

	folders, err := b.extractFolders(page.Body)
	if err != nil {
		return nil, err
	}
	b.logger.Info("discovered archive folders", zap.Int("folders", len(folders)))

	var meetings []civic.Meeting
	for _, folder := range folders {
		found, err := b.listFolder(ctx, folder)
		if err != nil {
			b.logger.Warn("folder walk failed",
				zap.String("folder", folder.name),
				zap.Error(err),
			)
			continue
		}
		meetings = append(meetings, found...)
	}

	sort.SliceStable(meetings, func(i, j int) bool {
		return meetings[i].Date.After(meetings[j].Date)
	})
	return meetings, nil
}

type folderLink struct {
	name string
	url  string
}

// extractFolders collects the archive folder links on the browse page,
// skipping the portal's navigation links.
func (b *Browser) extractFolders(body []byte) ([]folderLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse browse page: %w", err)
	}

	var folders []folderLink
	doc.Find(`a[href*="Browse.aspx"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		href, _ := sel.Attr("href")
		if href == "" {
			return true
		}
		switch strings.ToLower(text) {
		case "back", "up", "home":
			return true
		}
		folders = append(folders, folderLink{
			name: text,
			url:  b.folderURL(href),
		})
		return len(folders) < b.cfg.MaxFolders
	})
	return folders, nil
}

// listFolder renders one archive folder and extracts its minutes rows
// and any direct PDF links.
func (b *Browser) listFolder(ctx context.Context, folder folderLink) ([]civic.Meeting, error) {
	page, err := b.renderer.Render(ctx, folder.url)
	if err != nil {
		return nil, fmt.Errorf("render folder %s: %w", folder.name, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse folder %s: %w", folder.name, err)
	}

	var meetings []civic.Meeting
	seen := map[string]bool{}

	add := func(title, href string) {
		if title == "" || href == "" {
			return
		}
		docURL := b.documentURL(href)
		if seen[docURL] {
			return
		}
		seen[docURL] = true

		date, ok := DateFromTitle(title)
		if !ok {
			b.logger.Debug("minutes title has no parseable date", zap.String("title", title))
		}
		meetings = append(meetings, civic.Meeting{
			Date:       date,
			Title:      title,
			Type:       "Meeting Minutes",
			MinutesURL: docURL,
			Folder:     folder.name,
		})
	}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		rowText := strings.TrimSpace(row.Text())
		if !strings.Contains(rowText, "Minutes") || !containsDigit(rowText) {
			return
		}
		row.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			title := strings.TrimSpace(link.Text())
			if !strings.Contains(title, "Minutes") {
				return
			}
			href, _ := link.Attr("href")
			add(title, href)
		})
	})

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !strings.HasSuffix(strings.ToLower(href), ".pdf") {
			return
		}
		add(strings.TrimSpace(link.Text()), href)
	})

	b.logger.Info("listed folder",
		zap.String("folder", folder.name),
		zap.Int("meetings", len(meetings)),
	)
	return meetings, nil
}

// folderURL resolves a folder href. Relative folder links are relative
// to the WebLink application root, not the browse page.
func (b *Browser) folderURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base := strings.TrimRight(b.cfg.BaseURL, "/")
	if strings.HasPrefix(href, "/") {
		return base + href
	}
	return base + "/WebLink/" + href
}

func (b *Browser) documentURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base := strings.TrimRight(b.cfg.BaseURL, "/")
	if strings.HasPrefix(href, "/") {
		return base + href
	}
	return base + "/" + href
}

func containsDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}
