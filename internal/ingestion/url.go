package ingestion

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/fetch"
	"github.com/jonathan/recruiter-insight/internal/validation"
)

var (
	ErrHTTPRequestFailed       = errors.New("HTTP request failed")
	ErrContentExtractionFailed = errors.New("content extraction failed")
	ErrEmptyContent            = errors.New("no job posting text found")
)

// Fetcher downloads a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.CachedResult, error)
}

// URLOptions configures IngestFromURL.
type URLOptions struct {
	// Fetcher defaults to an uncached fetch.CachedFetcher.
	Fetcher Fetcher
	// Render is called when the static text is too short. Nil disables the
	// browser fallback.
	Render fetch.Renderer
}

// ExtractMainText returns the cleaned main text of a job posting page,
// using selectors for the platform the URL belongs to.
func ExtractMainText(html, urlStr string) (string, error) {
	platform := fetch.DetectPlatform(urlStr)
	text, err := fetch.ExtractMainText(html,
		fetch.PlatformContentSelectors(platform),
		fetch.PlatformNoiseSelectors(platform)...)
	if err != nil {
		return "", err
	}
	return CleanText(text), nil
}

// IngestFromURL fetches a job posting, extracts its main text and falls back
// to browser rendering for script-heavy boards. External text passes
// through the prompt-injection sanitizer before it is returned.
func IngestFromURL(ctx context.Context, urlStr string, opts URLOptions) (string, *Metadata, error) {
	if opts.Fetcher == nil {
		opts.Fetcher = fetch.NewCachedFetcher(nil, 0, nil)
	}
	platform := fetch.DetectPlatform(urlStr)
	log := zap.S().With("url", urlStr, "platform", platform)

	result, err := opts.Fetcher.Fetch(ctx, urlStr)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}

	text, err := ExtractMainText(result.HTML, urlStr)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}
	html := result.HTML

	if opts.Render != nil && (fetch.ShouldUseBrowser(text) || fetch.RequiresBrowser(platform)) {
		log.Infow("falling back to browser rendering", "chars", utf8.RuneCountInString(text))
		rendered, renderErr := opts.Render(ctx, urlStr)
		if renderErr != nil {
			log.Warnw("browser rendering failed, using static content", "error", renderErr)
		} else if renderedText, extractErr := ExtractMainText(rendered, urlStr); extractErr == nil &&
			utf8.RuneCountInString(renderedText) > utf8.RuneCountInString(text) {
			text = renderedText
			html = rendered
		}
	}

	if text == "" {
		return "", nil, ErrEmptyContent
	}
	text = validation.SanitizeExternal(text, urlStr)

	metadata := NewMetadata(text, urlStr)
	metadata.Platform = string(platform)
	metadata.Title = fetch.ExtractTitle(html)
	metadata.FromCache = result.FromCache
	log.Infow("ingested job posting", "chars", utf8.RuneCountInString(text), "from_cache", result.FromCache)
	return text, metadata, nil
}
