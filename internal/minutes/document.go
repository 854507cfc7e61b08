package minutes

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/civiclens/council-scraper/internal/fetch"
)

// pageFetcher is the slice of the HTTP client the document fetcher
// needs.
type pageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (fetch.Page, error)
}

// Document is the raw content of one minutes document.
type Document struct {
	URL  string
	Data []byte
	PDF  bool
}

// Text extracts the document's plain text.
func (d Document) Text() (string, error) {
	if d.PDF {
		return PDFText(d.Data)
	}
	return HTMLText(d.Data)
}

var docIDPattern = regexp.MustCompile(`id=(\d+)`)

// Endpoints the portal serves raw documents from, in preference order.
var documentEndpoints = []string{
	"GetDocument.aspx",
	"Download.aspx",
	"ViewDocument.aspx",
	"GetFile.aspx",
	"Document.aspx",
}

// DocumentFetcher retrieves the bytes behind a minutes link. The
// portal's viewer pages embed the PDF behind download endpoints, so
// direct PDF URLs are tried first and the rendered viewer page is the
// fallback.
type DocumentFetcher struct {
	fetcher  pageFetcher
	renderer renderer
	baseURL  string
	logger   *zap.Logger
}

// NewDocumentFetcher builds a document fetcher for the portal at
// baseURL.
func NewDocumentFetcher(fetcher pageFetcher, r renderer, baseURL string, logger *zap.Logger) *DocumentFetcher {
	return &DocumentFetcher{
		fetcher:  fetcher,
		renderer: r,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger.Named("document"),
	}
}

// Fetch returns the document content, preferring the raw PDF.
func (f *DocumentFetcher) Fetch(ctx context.Context, docURL string) (Document, error) {
	for _, candidate := range f.pdfCandidates(docURL) {
		page, err := f.fetcher.Fetch(ctx, candidate)
		if err != nil {
			f.logger.Debug("document candidate miss",
				zap.String("url", candidate),
				zap.Error(err),
			)
			continue
		}
		if IsPDF(page.Body) {
			return Document{URL: candidate, Data: page.Body, PDF: true}, nil
		}
	}

	page, err := f.renderer.Render(ctx, docURL)
	if err != nil {
		return Document{}, fmt.Errorf("render document page: %w", err)
	}
	return Document{URL: docURL, Data: page.Body, PDF: false}, nil
}

// pdfCandidates lists URLs likely to serve the raw document. A direct
// .pdf link is its own candidate; viewer links get the portal's
// download endpoints constructed from their document id.
func (f *DocumentFetcher) pdfCandidates(docURL string) []string {
	if strings.HasSuffix(strings.ToLower(docURL), ".pdf") {
		return []string{docURL}
	}

	m := docIDPattern.FindStringSubmatch(docURL)
	if m == nil {
		return nil
	}
	docID := m[1]

	query := url.Values{}
	if parsed, err := url.Parse(docURL); err == nil {
		query = parsed.Query()
	}
	query.Set("id", docID)

	candidates := make([]string, 0, len(documentEndpoints))
	for _, endpoint := range documentEndpoints {
		candidates = append(candidates, fmt.Sprintf("%s/WebLink/%s?%s", f.baseURL, endpoint, query.Encode()))
	}
	return candidates
}
