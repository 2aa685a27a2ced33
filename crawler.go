// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sitediff

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gobwas/glob"
	"github.com/rs/zerolog"
)

// CrawlConfig controls one page crawl. The zero value is not usable; start
// from NewDefaultCrawlConfig and override fields.
type CrawlConfig struct {
	// OutputDir is the root under which per-hostname artifact trees are
	// created
	OutputDir string
	// Parallelism caps concurrent resource fetches within one page crawl
	Parallelism int
	// Timeout is the transport-level connect/read timeout per request
	Timeout time.Duration
	// UserAgent is sent on every request
	UserAgent string
	// DetectCharset enables charset sniffing and UTF-8 transcoding for text
	// artifacts whose Content-Type declares no charset
	DetectCharset bool
	// HashAlgorithm selects the content hash for image verdicts and
	// hash-named binaries: "xxhash" (default), "md5" or "sha256"
	HashAlgorithm string
	// IgnorePatterns are glob patterns; resource URLs matching any of them
	// are excluded from fetching and comparison (e.g. analytics pixels)
	IgnorePatterns []string
	// Transport overrides the HTTP transport, used by tests to install a
	// mock round-tripper
	Transport http.RoundTripper
	// Logger receives crawl diagnostics; defaults to a disabled logger
	Logger zerolog.Logger
}

// NewDefaultCrawlConfig returns a CrawlConfig with sensible defaults
func NewDefaultCrawlConfig() *CrawlConfig {
	return &CrawlConfig{
		OutputDir:     "sitediff_output",
		Parallelism:   8,
		Timeout:       10 * time.Second,
		UserAgent:     "sitediff/1.0 (+https://snake.blue)",
		HashAlgorithm: "xxhash",
		Logger:        zerolog.Nop(),
	}
}

// PageCrawler fetches one page's markup, extracts its direct resource
// references and fetches those too, yielding a categorized bundle of local
// artifacts. CSS-embedded image references are discovered in a second
// fan-out once their owning stylesheets have been fetched.
type PageCrawler struct {
	cfg     *CrawlConfig
	fetcher *Fetcher
	client  *http.Client
	ignore  []glob.Glob
	log     zerolog.Logger
}

// NewPageCrawler builds a crawler with its own connection-reusing HTTP
// client. Crawlers are single-use per page; the two page variants must not
// share one.
func NewPageCrawler(cfg *CrawlConfig) (*PageCrawler, error) {
	if cfg == nil {
		cfg = NewDefaultCrawlConfig()
	}

	ignore := make([]glob.Glob, 0, len(cfg.IgnorePatterns))
	for _, pattern := range cfg.IgnorePatterns {
		compiled, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile ignore pattern %q: %w", pattern, err)
		}
		ignore = append(ignore, compiled)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Transport != nil {
		client.Transport = cfg.Transport
	}

	return &PageCrawler{
		cfg:    cfg,
		client: client,
		ignore: ignore,
		log:    cfg.Logger,
	}, nil
}

// Crawl fetches pageURL's markup and all resources it references. A markup
// fetch failure is fatal and wraps ErrMarkupUnavailable; every child fetch
// failure is isolated, recorded in the bundle's Failed list, and does not
// cancel sibling fetches.
func (pc *PageCrawler) Crawl(ctx context.Context, pageURL string) (*PageBundle, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Hostname() == "" {
		return nil, fmt.Errorf("invalid page URL %q: %v", pageURL, err)
	}

	baseDir := filepath.Join(pc.cfg.OutputDir, parsed.Hostname())
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", baseDir, err)
	}
	pc.fetcher = NewFetcher(pc.client, baseDir, pc.cfg)

	pc.log.Info().Str("url", pageURL).Str("dir", baseDir).Msg("crawling page")

	markup, err := pc.fetcher.Fetch(ctx, ResourceReference{Kind: KindMarkup, AbsoluteLocation: pageURL})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMarkupUnavailable, pageURL, err)
	}

	markupBytes, err := os.ReadFile(markup.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading saved markup: %v", ErrMarkupUnavailable, pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markupBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: parsing markup: %v", ErrMarkupUnavailable, pageURL, err)
	}

	bundle := &PageBundle{
		URL:          pageURL,
		Markup:       markup,
		Stylesheets:  make([]FetchedArtifact, 0),
		Scripts:      make([]FetchedArtifact, 0),
		Images:       make([]FetchedArtifact, 0),
		InlineImages: make([]InlineImage, 0),
	}

	refs, inline := ExtractPageResources(doc, pageURL)
	bundle.InlineImages = inline

	seen := make(map[ResourceReference]bool, len(refs))
	refs = pc.filterIgnored(refs, seen)

	var mu sync.Mutex
	pc.fanOut(ctx, refs, bundle, &mu)

	// Second level: CSS-embedded image references become discoverable only
	// after their owning stylesheets have been fetched.
	cssRefs := pc.scanStylesheets(bundle.Stylesheets)
	cssRefs = pc.filterIgnored(cssRefs, seen)
	pc.fanOut(ctx, cssRefs, bundle, &mu)

	pc.log.Info().
		Str("url", pageURL).
		Int("stylesheets", len(bundle.Stylesheets)).
		Int("scripts", len(bundle.Scripts)).
		Int("images", len(bundle.Images)).
		Int("inlineImages", len(bundle.InlineImages)).
		Int("failed", len(bundle.Failed)).
		Msg("crawl complete")

	return bundle, nil
}

// filterIgnored drops references matching an ignore pattern or already seen
// in an earlier fan-out phase
func (pc *PageCrawler) filterIgnored(refs []ResourceReference, seen map[ResourceReference]bool) []ResourceReference {
	out := make([]ResourceReference, 0, len(refs))
	for _, ref := range refs {
		if seen[ref] {
			continue
		}
		seen[ref] = true
		if pc.isIgnored(ref.AbsoluteLocation) {
			pc.log.Debug().Str("url", ref.AbsoluteLocation).Msg("resource ignored by pattern")
			continue
		}
		out = append(out, ref)
	}
	return out
}

func (pc *PageCrawler) isIgnored(location string) bool {
	for _, g := range pc.ignore {
		if g.Match(location) {
			return true
		}
	}
	return false
}

// fanOut fetches refs concurrently through a bounded worker pool, appending
// results to the bundle's per-kind collections under mu
func (pc *PageCrawler) fanOut(ctx context.Context, refs []ResourceReference, bundle *PageBundle, mu *sync.Mutex) {
	if len(refs) == 0 {
		return
	}

	pool := newFetchPool(ctx, pc.cfg.Parallelism)
	for _, ref := range refs {
		ref := ref
		err := pool.submit(func() {
			artifact, err := pc.fetcher.Fetch(ctx, ref)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				pc.log.Warn().Str("url", ref.AbsoluteLocation).Err(err).Msg("resource fetch failed")
				bundle.Failed = append(bundle.Failed, ref.AbsoluteLocation)
				return
			}
			pc.log.Debug().Str("url", ref.AbsoluteLocation).Str("path", artifact.LocalPath).Msg("downloaded")
			switch artifact.Kind {
			case KindStylesheet:
				bundle.Stylesheets = append(bundle.Stylesheets, *artifact)
			case KindScript:
				bundle.Scripts = append(bundle.Scripts, *artifact)
			case KindImage:
				bundle.Images = append(bundle.Images, *artifact)
			}
		})
		if err != nil {
			break // context cancelled; pool workers are already draining
		}
	}
	pool.close()
}

// scanStylesheets extracts image references embedded in fetched stylesheet
// content. A stylesheet that cannot be read back is treated as having no
// embedded references; the crawl carries on.
func (pc *PageCrawler) scanStylesheets(stylesheets []FetchedArtifact) []ResourceReference {
	refs := make([]ResourceReference, 0)
	for _, css := range stylesheets {
		content, err := os.ReadFile(css.LocalPath)
		if err != nil {
			pc.log.Warn().Str("path", css.LocalPath).Err(err).Msg("cannot scan stylesheet for images")
			continue
		}
		refs = append(refs, ExtractStylesheetImages(string(content), css.SourceLocation)...)
	}
	return dedupeReferences(refs)
}
