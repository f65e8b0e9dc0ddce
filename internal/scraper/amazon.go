package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/leontonobunaga/amaprice/internal/browser"
	"github.com/leontonobunaga/amaprice/internal/ratelimit"
)

const (
	amazonJPBaseURL   = "https://www.amazon.co.jp"
	productURLPattern = `(?i)(?:https?://)?(?:www\.)?amazon\.co\.jp/(?:.*?/)?(?:dp|gp/product|product)/([A-Z0-9]{10})`
)

var (
	asinPattern = regexp.MustCompile(productURLPattern)

	// Relative links on ranking pages carry only the path.
	asinPathPattern = regexp.MustCompile(`/(?:dp|gp/product|product)/([A-Z0-9]{10})`)
)

// AmazonScraper fetches rendered pages from the home marketplace. It
// implements the pipeline's DocumentSource.
type AmazonScraper struct {
	browser *browser.Browser
	limiter ratelimit.RateLimiter
	logger  *slog.Logger
}

func NewAmazonScraper(b *browser.Browser, limiter ratelimit.RateLimiter, logger *slog.Logger) *AmazonScraper {
	return &AmazonScraper{
		browser: b,
		limiter: limiter,
		logger:  logger.With("component", "amazon_scraper"),
	}
}

// Fetch navigates to the URL and returns the rendered HTML.
func (s *AmazonScraper) Fetch(ctx context.Context, url string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	if strings.HasPrefix(url, "/") {
		url = amazonJPBaseURL + url
	}
	s.logger.Info("fetching page", "url", url)

	page, err := s.browser.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	if err := s.browser.NavigateWithRetry(page, url, 3); err != nil {
		return "", fmt.Errorf("failed to navigate: %w", err)
	}

	if s.checkIfBlocked(page) {
		return "", ErrBlocked
	}

	html, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}

	return html, nil
}

// FetchByASIN fetches a product detail page by its ASIN.
func (s *AmazonScraper) FetchByASIN(ctx context.Context, asin string) (string, error) {
	return s.Fetch(ctx, fmt.Sprintf("%s/dp/%s", amazonJPBaseURL, asin))
}

// ExtractASIN pulls the 10-character ASIN out of an absolute or
// relative product URL.
func ExtractASIN(url string) (string, error) {
	if matches := asinPattern.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1], nil
	}
	if matches := asinPathPattern.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1], nil
	}
	return "", ErrInvalidURL
}

func (s *AmazonScraper) checkIfBlocked(page playwright.Page) bool {
	captchaSelectors := []string{
		"#captchacharacters",
		"form[action*='Captcha']",
	}

	for _, selector := range captchaSelectors {
		if count, _ := page.Locator(selector).Count(); count > 0 {
			s.logger.Warn("detected captcha/block", "selector", selector)
			return true
		}
	}

	title, _ := page.Title()
	if strings.Contains(strings.ToLower(title), "robot") {
		s.logger.Warn("detected robot check in title", "title", title)
		return true
	}

	return false
}
