// Package votetracker ingests a third-party vote-tracker spreadsheet
// published alongside a news page.
package votetracker

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/civic"
	"github.com/civiclens/council-scraper/internal/fetch"
)

// pageFetcher is the slice of the HTTP client the tracker needs.
type pageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (fetch.Page, error)
}

// Row is one recorded vote from the tracker.
type Row struct {
	Member string
	Vote   string
	Date   string
	Title  string
	Code   string
}

// Defaults for rows the tracker publishes without a description or
// category.
const (
	defaultTitle = "Vote recorded by BRL"
	defaultCode  = "Unknown"
)

// Config locates the tracker page.
type Config struct {
	// TrackerURL is the page hosting or linking the spreadsheet.
	TrackerURL string
	// SourceName labels the votes, e.g. "BRL Vote Tracker".
	SourceName string
}

// Tracker fetches and parses the vote tracker.
type Tracker struct {
	fetcher pageFetcher
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time

	// rewriteSheetURL turns a discovered sheet link into its CSV
	// export URL. Tests point it at a local server.
	rewriteSheetURL func(string) string
}

// NewTracker builds a tracker scraper.
func NewTracker(fetcher pageFetcher, cfg Config, logger *zap.Logger) *Tracker {
	return &Tracker{
		fetcher:         fetcher,
		cfg:             cfg,
		logger:          logger.Named("votetracker"),
		now:             time.Now,
		rewriteSheetURL: CSVExportURL,
	}
}

// Rows fetches the tracker and returns its vote rows. The published
// spreadsheet is preferred; the page's own table and finally bare
// name/vote pairs in the page text serve as fallbacks.
func (t *Tracker) Rows(ctx context.Context) ([]Row, error) {
	page, err := t.fetcher.Fetch(ctx, t.cfg.TrackerURL)
	if err != nil {
		return nil, fmt.Errorf("fetch tracker page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse tracker page: %w", err)
	}

	if sheetURL := discoverSheetURL(doc); sheetURL != "" {
		t.logger.Info("found tracker spreadsheet", zap.String("url", sheetURL))
		rows, err := t.fetchSheet(ctx, sheetURL)
		if err != nil {
			return nil, err
		}
		return rows, nil
	}

	t.logger.Info("no spreadsheet link, extracting from page content")
	if rows := t.rowsFromTable(doc); len(rows) > 0 {
		return rows, nil
	}
	return t.rowsFromText(doc), nil
}

// discoverSheetURL looks for a published Google Sheets link in anchors
// and embedded iframes.
func discoverSheetURL(doc *goquery.Document) string {
	found := ""
	isSheet := func(u string) bool {
		return strings.Contains(u, "docs.google.com") || strings.Contains(u, "sheets.google.com")
	}
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if isSheet(href) {
			found = href
			return false
		}
		return true
	})
	if found != "" {
		return found
	}
	doc.Find("iframe[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, _ := sel.Attr("src")
		if isSheet(src) {
			found = src
			return false
		}
		return true
	})
	return found
}

// CSVExportURL rewrites a Google Sheets URL to its CSV export form.
// URLs without a spreadsheet id pass through unchanged.
func CSVExportURL(sheetURL string) string {
	const marker = "/spreadsheets/d/"
	idx := strings.Index(sheetURL, marker)
	if idx < 0 {
		return sheetURL
	}
	rest := sheetURL[idx+len(marker):]
	id := rest
	if slash := strings.IndexAny(rest, "/?#"); slash >= 0 {
		id = rest[:slash]
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv", id)
}

func (t *Tracker) fetchSheet(ctx context.Context, sheetURL string) ([]Row, error) {
	csvURL := t.rewriteSheetURL(sheetURL)
	page, err := t.fetcher.Fetch(ctx, csvURL)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet csv: %w", err)
	}
	rows, err := parseCSV(page.Body)
	if err != nil {
		return nil, fmt.Errorf("parse sheet csv: %w", err)
	}
	t.logger.Info("loaded tracker sheet", zap.Int("rows", len(rows)))
	return rows, nil
}

// Column names the tracker sheet has used.
var columnAliases = map[string]string{
	"councilmember":      "member",
	"council member":     "member",
	"member":             "member",
	"vote":               "vote",
	"date":               "date",
	"agenda_item_desc_1": "title",
	"agenda item":        "title",
	"title":              "title",
	"code":               "code",
	"category":           "code",
}

func parseCSV(data []byte) ([]Row, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	fields := mapColumns(header)
	if _, ok := fields["member"]; !ok {
		return nil, fmt.Errorf("sheet has no council member column")
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		row := rowFromRecord(record, fields)
		if row.Member == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// mapColumns maps logical field names to column indexes.
func mapColumns(header []string) map[string]int {
	fields := map[string]int{}
	for i, col := range header {
		key := strings.ToLower(strings.TrimSpace(col))
		name, ok := columnAliases[key]
		if !ok {
			continue
		}
		if _, dup := fields[name]; !dup {
			fields[name] = i
		}
	}
	return fields
}

func rowFromRecord(record []string, fields map[string]int) Row {
	get := func(name string) string {
		idx, ok := fields[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	row := Row{
		Member: get("member"),
		Vote:   get("vote"),
		Date:   get("date"),
		Title:  get("title"),
		Code:   get("code"),
	}
	if row.Title == "" {
		row.Title = defaultTitle
	}
	if row.Code == "" {
		row.Code = defaultCode
	}
	return row
}

// rowsFromTable parses the page's first HTML table as the tracker.
func (t *Tracker) rowsFromTable(doc *goquery.Document) []Row {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil
	}

	var header []string
	table.Find("tr").First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		header = append(header, strings.TrimSpace(cell.Text()))
	})
	fields := mapColumns(header)
	if _, ok := fields["member"]; !ok {
		return nil
	}

	var rows []Row
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		var record []string
		tr.Find("td").Each(func(_ int, cell *goquery.Selection) {
			record = append(record, strings.TrimSpace(cell.Text()))
		})
		row := rowFromRecord(record, fields)
		if row.Member != "" {
			rows = append(rows, row)
		}
	})
	t.logger.Info("extracted tracker rows from page table", zap.Int("rows", len(rows)))
	return rows
}

var votePairPattern = regexp.MustCompile(`(\w+)\s+(YEA|NAY|ABSTAIN|ABSENT)`)

// rowsFromText scrapes bare "<name> <vote>" pairs out of the page
// text. Pairs carry no date, so they are attributed to the scrape day.
func (t *Tracker) rowsFromText(doc *goquery.Document) []Row {
	today := t.now().Format("2006-01-02")
	var rows []Row
	for _, m := range votePairPattern.FindAllStringSubmatch(doc.Text(), -1) {
		rows = append(rows, Row{
			Member: m[1],
			Vote:   m[2],
			Date:   today,
			Title:  "Extracted from page content",
			Code:   defaultCode,
		})
	}
	t.logger.Info("extracted tracker rows from page text", zap.Int("rows", len(rows)))
	return rows
}

// NormalizeVote maps the tracker's vote spellings onto the stored
// enum. Unknown or empty values count as abstentions.
func NormalizeVote(raw string) civic.VoteValue {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "Y", "YEA":
		return civic.VoteYea
	case "N", "NAY":
		return civic.VoteNay
	case "ABSENT":
		return civic.VoteAbsent
	case "ABSTAIN":
		return civic.VoteAbstain
	default:
		return civic.VoteAbstain
	}
}

// DateGroup is the tracker rows sharing one meeting date.
type DateGroup struct {
	Date string
	Rows []Row
}

// GroupByDate buckets rows into one meeting per date, oldest first.
func GroupByDate(rows []Row) []DateGroup {
	byDate := map[string][]Row{}
	for _, row := range rows {
		byDate[row.Date] = append(byDate[row.Date], row)
	}
	groups := make([]DateGroup, 0, len(byDate))
	for date, rs := range byDate {
		groups = append(groups, DateGroup{Date: date, Rows: rs})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date < groups[j].Date
	})
	return groups
}
