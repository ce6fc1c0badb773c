// Package scrape fetches job posting pages and extracts the description
// and metadata, site-aware for LinkedIn with a generic fallback.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"cv_matcher/internal/app"
)

const maxBodyBytes = 5 * 1024 * 1024

// Description selectors probed in order on LinkedIn pages; first match wins.
var linkedinDescriptionSelectors = []string{
	".jobs-description",
	".jobs-description-content__text",
	"#job-details",
}

var linkedinTitleSelectors = []string{
	".job-details-jobs-unified-top-card__job-title",
	"h1",
}

var linkedinCompanySelectors = []string{
	".job-details-jobs-unified-top-card__primary-description a",
	".job-details-jobs-unified-top-card__company-name a",
}

// Scraper fetches pages over HTTP and extracts job postings from them.
type Scraper struct {
	client *http.Client
}

func NewScraper() *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Scrape fetches rawURL and extracts the job description and metadata.
// The returned description may be too short to analyze; callers enforce
// the minimum-length precondition.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*app.JobPage, error) {
	page, err := s.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return &app.JobPage{
		Description: page.Description(),
		Meta:        page.Metadata(),
	}, nil
}

// Page is one fetched, parsed document.
type Page struct {
	url *url.URL
	doc *goquery.Document
}

func (s *Scraper) fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "cvmatch/1.0 (job match analyzer)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &app.RemoteError{Op: "scrape", Message: "HTTP " + resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	log.Debug().
		Str("url", u.String()).
		Int("bytes", len(body)).
		Msg("Fetched page")

	return &Page{url: u, doc: doc}, nil
}

// ParsePage builds a Page from already-fetched HTML. Used by tests and by
// the watcher between probes.
func ParsePage(rawURL, html string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{url: u, doc: doc}, nil
}

// Description returns the rendered job description text. LinkedIn pages
// probe the known selectors in order; everywhere else the first article,
// then the first main element, then the document body is used.
func (p *Page) Description() string {
	if p.isLinkedIn() {
		for _, selector := range p.descriptionSelectors() {
			if sel := p.doc.Find(selector).First(); sel.Length() > 0 {
				if text := renderedText(sel); text != "" {
					return text
				}
			}
		}
	}

	if article := p.doc.Find("article").First(); article.Length() > 0 {
		return renderedText(article)
	}
	if main := p.doc.Find("main").First(); main.Length() > 0 {
		return renderedText(main)
	}
	return renderedText(p.doc.Find("body"))
}

func (p *Page) descriptionSelectors() []string {
	return linkedinDescriptionSelectors
}

// Metadata extracts title and company, defaulting to "Unknown Title" and
// "Unknown Company" when nothing matches.
func (p *Page) Metadata() app.JobMetadata {
	meta := app.JobMetadata{
		Title:   "Unknown Title",
		Company: "Unknown Company",
		URL:     p.url.String(),
	}

	if p.isLinkedIn() {
		if text := p.firstText(linkedinTitleSelectors); text != "" {
			meta.Title = text
		}
		if text := p.firstText(linkedinCompanySelectors); text != "" {
			meta.Company = text
		}
		return meta
	}

	if h1 := p.doc.Find("h1").First(); h1.Length() > 0 {
		if text := renderedText(h1); text != "" {
			meta.Title = text
		}
	}
	return meta
}

func (p *Page) firstText(selectors []string) string {
	for _, selector := range selectors {
		if sel := p.doc.Find(selector).First(); sel.Length() > 0 {
			if text := renderedText(sel); text != "" {
				return text
			}
		}
	}
	return ""
}

func (p *Page) isLinkedIn() bool {
	host := strings.ToLower(p.url.Hostname())
	return host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com")
}

// renderedText approximates the browser's innerText: non-content tags are
// dropped and whitespace is collapsed.
func renderedText(sel *goquery.Selection) string {
	clone := sel.Clone()
	clone.Find("script, style, noscript, iframe, nav, header, footer, aside").Remove()
	return strings.Join(strings.Fields(clone.Text()), " ")
}
