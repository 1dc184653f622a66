package batchcorrelator

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// maxEnrichBodyBytes bounds how much of a cited page gets fetched; citation
// enrichment only needs the head/opening markup, never the full document.
const maxEnrichBodyBytes = 512 * 1024

// CitationEnricher best-effort backfills a cited URL's domain and title
// when the scraper webhook didn't supply them (spec §4.4 intake). Never
// blocks or fails intake: every error is swallowed and the citation is left
// as-is.
type CitationEnricher struct {
	httpClient *http.Client
}

func NewCitationEnricher(timeout time.Duration) *CitationEnricher {
	return &CitationEnricher{httpClient: &http.Client{Timeout: timeout}}
}

// Enrich fills citation.Domain from the URL itself, then citation.Title by
// fetching the page and trying readability's article extraction before
// falling back to the raw <title> tag.
func (e *CitationEnricher) Enrich(ctx context.Context, citation *pkgmodels.Citation) {
	if citation.URL == "" {
		return
	}
	parsed, err := url.Parse(citation.URL)
	if err != nil {
		return
	}
	if citation.Domain == "" {
		citation.Domain = parsed.Hostname()
	}
	if citation.Title != "" {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, citation.URL, nil)
	if err != nil {
		return
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEnrichBodyBytes))
	if err != nil {
		return
	}

	if article, err := readability.FromReader(bytes.NewReader(body), parsed); err == nil && strings.TrimSpace(article.Title) != "" {
		citation.Title = strings.TrimSpace(article.Title)
		return
	}

	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
			citation.Title = title
		}
	}
}
