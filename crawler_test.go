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
	"context"
	"errors"
	"net/http"
	"testing"
)

func crawlConfigFor(t *testing.T, transport *MockTransport) *CrawlConfig {
	t.Helper()
	cfg := NewDefaultCrawlConfig()
	cfg.OutputDir = t.TempDir()
	cfg.Transport = transport
	return cfg
}

func registerSimplePage(transport *MockTransport, base string) {
	transport.RegisterHTML(base+"/", `<html><head>
		<link rel="stylesheet" href="/css/main.css">
		<script src="/js/app.js"></script>
	</head><body>
		<img src="/img/logo.png">
	</body></html>`)
	transport.RegisterCSS(base+"/css/main.css", `.hero { background: url(../img/bg.png); }`)
	transport.RegisterJS(base+"/js/app.js", `console.log("hi");`)
	transport.RegisterImage(base+"/img/logo.png", "png", []byte("LOGO"))
	transport.RegisterImage(base+"/img/bg.png", "png", []byte("BG"))
}

func TestCrawlCollectsAllResourceKinds(t *testing.T) {
	transport := NewMockTransport()
	registerSimplePage(transport, "https://example.com")

	crawler, err := NewPageCrawler(crawlConfigFor(t, transport))
	if err != nil {
		t.Fatalf("NewPageCrawler: %v", err)
	}

	bundle, err := crawler.Crawl(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	if bundle.Markup == nil {
		t.Fatal("bundle has no markup")
	}
	if len(bundle.Stylesheets) != 1 {
		t.Errorf("expected 1 stylesheet, got %d", len(bundle.Stylesheets))
	}
	if len(bundle.Scripts) != 1 {
		t.Errorf("expected 1 script, got %d", len(bundle.Scripts))
	}
	// logo.png from the markup plus bg.png discovered inside the stylesheet
	if len(bundle.Images) != 2 {
		t.Errorf("expected 2 images, got %d: %+v", len(bundle.Images), bundle.Images)
	}
	if len(bundle.Failed) != 0 {
		t.Errorf("unexpected failures: %v", bundle.Failed)
	}
}

func TestCrawlDiscoversStylesheetEmbeddedImages(t *testing.T) {
	transport := NewMockTransport()
	registerSimplePage(transport, "https://example.com")

	crawler, _ := NewPageCrawler(crawlConfigFor(t, transport))
	if _, err := crawler.Crawl(context.Background(), "https://example.com/"); err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	requested := make(map[string]bool)
	for _, url := range transport.Requests() {
		requested[url] = true
	}
	if !requested["https://example.com/img/bg.png"] {
		t.Errorf("stylesheet-embedded image never fetched; requests: %v", transport.Requests())
	}
}

func TestCrawlRecordsFailedResources(t *testing.T) {
	transport := NewMockTransport()
	registerSimplePage(transport, "https://example.com")
	transport.RegisterError("https://example.com/js/app.js", errors.New("connection reset"))

	crawler, _ := NewPageCrawler(crawlConfigFor(t, transport))
	bundle, err := crawler.Crawl(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	if len(bundle.Scripts) != 0 {
		t.Errorf("failed script still collected: %+v", bundle.Scripts)
	}
	if len(bundle.Failed) != 1 || bundle.Failed[0] != "https://example.com/js/app.js" {
		t.Errorf("unexpected failed list: %v", bundle.Failed)
	}
	// siblings are unaffected
	if len(bundle.Stylesheets) != 1 || len(bundle.Images) != 2 {
		t.Errorf("sibling fetches disturbed: %d stylesheets, %d images",
			len(bundle.Stylesheets), len(bundle.Images))
	}
}

func TestCrawlMarkupFailureIsFatal(t *testing.T) {
	transport := NewMockTransport()
	// nothing registered: the page itself 404s

	crawler, _ := NewPageCrawler(crawlConfigFor(t, transport))
	_, err := crawler.Crawl(context.Background(), "https://example.com/")
	if err == nil {
		t.Fatal("expected error when page markup cannot be fetched")
	}
	if !errors.Is(err, ErrMarkupUnavailable) {
		t.Errorf("expected ErrMarkupUnavailable, got %v", err)
	}
}

func TestCrawlRejectsInvalidURL(t *testing.T) {
	crawler, _ := NewPageCrawler(crawlConfigFor(t, NewMockTransport()))
	if _, err := crawler.Crawl(context.Background(), "not-a-url"); err == nil {
		t.Fatal("expected error for URL without hostname")
	}
}

func TestCrawlIgnorePatterns(t *testing.T) {
	transport := NewMockTransport()
	registerSimplePage(transport, "https://example.com")

	cfg := crawlConfigFor(t, transport)
	cfg.IgnorePatterns = []string{"*/js/*"}

	crawler, err := NewPageCrawler(cfg)
	if err != nil {
		t.Fatalf("NewPageCrawler: %v", err)
	}
	bundle, err := crawler.Crawl(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	if len(bundle.Scripts) != 0 {
		t.Errorf("ignored script still collected: %+v", bundle.Scripts)
	}
	for _, url := range transport.Requests() {
		if url == "https://example.com/js/app.js" {
			t.Error("ignored resource was fetched anyway")
		}
	}
}

func TestCrawlInvalidIgnorePattern(t *testing.T) {
	cfg := NewDefaultCrawlConfig()
	cfg.IgnorePatterns = []string{"[unclosed"}
	if _, err := NewPageCrawler(cfg); err == nil {
		t.Fatal("expected error for malformed ignore pattern")
	}
}

func TestCrawlCancelledContext(t *testing.T) {
	transport := NewMockTransport()
	registerSimplePage(transport, "https://example.com")

	crawler, _ := NewPageCrawler(crawlConfigFor(t, transport))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := crawler.Crawl(ctx, "https://example.com/"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestCompareEndToEnd(t *testing.T) {
	transport := NewMockTransport()

	// working page
	transport.RegisterHTML("https://working.example.com/", `<html><head>
		<link rel="stylesheet" href="/css/site.css?ver=1.2.0">
	</head><body><div class="hero"><img src="/img/logo.png"></div></body></html>`)
	transport.RegisterCSS("https://working.example.com/css/site.css?ver=1.2.0",
		".hero { color: #222; }")
	transport.RegisterImage("https://working.example.com/img/logo.png", "png", []byte("LOGO-A"))

	// broken page: bumped version, reformatted stylesheet, changed image
	transport.RegisterHTML("https://broken.example.net/", `<html><head>
		<link rel="stylesheet" href="/css/site.css?ver=1.3.0">
	</head><body><div class="hero"><img src="/img/logo.png"></div></body></html>`)
	transport.RegisterCSS("https://broken.example.net/css/site.css?ver=1.3.0",
		".hero {\n\tcolor: #222;\n}")
	transport.RegisterImage("https://broken.example.net/img/logo.png", "png", []byte("LOGO-B"))

	cfg := NewDefaultCrawlConfig()
	cfg.OutputDir = t.TempDir()
	cfg.Transport = transport

	result, err := Compare(context.Background(), cfg,
		"https://working.example.com/", "https://broken.example.net/")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	// markup differs only in the stylesheet version, which filtering removes
	if len(result.Markup) != 1 {
		t.Fatalf("expected 1 markup record, got %d", len(result.Markup))
	}
	markupStatus := result.Markup[0].Status
	if markupStatus != StatusDifferent {
		t.Errorf("markup status %q, expected structural href change", markupStatus)
	}
	if result.Markup[0].Diff != "" {
		t.Errorf("version-only text difference survived filtering:\n%s", result.Markup[0].Diff)
	}

	// the reformatted stylesheet normalizes identically, so no record
	if len(result.Stylesheets) != 0 {
		t.Errorf("reformatted stylesheet produced records: %+v", result.Stylesheets)
	}
	if len(result.Images) != 1 || result.Images[0].Status != StatusHashMismatch {
		t.Errorf("changed image should mismatch: %+v", result.Images)
	}
}

func TestCompareMarkupFailurePropagates(t *testing.T) {
	transport := NewMockTransport()
	transport.RegisterHTML("https://working.example.com/", "<html></html>")
	transport.RegisterError("https://broken.example.net/", errors.New("connection refused"))

	cfg := NewDefaultCrawlConfig()
	cfg.OutputDir = t.TempDir()
	cfg.Transport = transport

	_, err := Compare(context.Background(), cfg,
		"https://working.example.com/", "https://broken.example.net/")
	if err == nil {
		t.Fatal("expected error when one page is unreachable")
	}
	if !errors.Is(err, ErrMarkupUnavailable) {
		t.Errorf("expected ErrMarkupUnavailable, got %v", err)
	}
}

func TestMockTransportUnregisteredURL(t *testing.T) {
	transport := NewMockTransport()
	client := &http.Client{Transport: transport}
	res, err := client.Get("https://example.com/nothing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", res.StatusCode)
	}
}
