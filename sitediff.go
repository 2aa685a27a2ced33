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

// Package sitediff compares two renderings of the same web page (a "working"
// and a "broken" variant) to localize regressions. It crawls each page's
// direct resource graph (markup, stylesheets, scripts, images), canonicalizes
// every artifact so formatting noise disappears, and produces structural and
// textual diffs per artifact kind.
package sitediff

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ResourceKind identifies the role of a resource in a page.
// The kind is decided once, at extraction or fetch time, and carried on every
// reference and artifact value.
type ResourceKind string

const (
	// KindMarkup is the page's own HTML document
	KindMarkup ResourceKind = "markup"
	// KindStylesheet is an external CSS file referenced via <link rel="stylesheet">
	KindStylesheet ResourceKind = "stylesheet"
	// KindScript is an external JavaScript file referenced via <script src>
	KindScript ResourceKind = "script"
	// KindImage is a fetchable image (img/src, srcset, data-src, picture
	// sources, inline-style backgrounds, SVG sprites, CSS url() references)
	KindImage ResourceKind = "image"
)

// ResourceReference is one resource mentioned by a page, prior to fetching.
type ResourceReference struct {
	// Kind is the resource role
	Kind ResourceKind `json:"kind"`
	// AbsoluteLocation is the reference resolved against its base
	// (the page for page-embedded references, the stylesheet for
	// CSS-embedded ones)
	AbsoluteLocation string `json:"absoluteLocation"`
}

// InlineImage is an image embedded directly in markup as a data URI rather
// than fetched over the network. Name is synthetic and sequential within one
// page so inline entries pair deterministically across the two crawls.
type InlineImage struct {
	// Name is the synthetic identifier, e.g. "data_uri_image_0"
	Name string `json:"name"`
	// Content is the full data URI
	Content string `json:"content"`
}

// FetchedArtifact is one successfully retrieved resource. It is created by
// the Fetcher on success and never mutated; failed fetches produce no
// artifact at all.
type FetchedArtifact struct {
	// Kind is the resource role
	Kind ResourceKind `json:"kind"`
	// SourceLocation is the absolute URL the artifact was fetched from
	SourceLocation string `json:"sourceLocation"`
	// LocalPath is the deterministic on-disk location derived from the
	// URL's path structure; comparison pairs artifacts strictly by its
	// basename
	LocalPath string `json:"localPath"`
	// ContentKindHint is derived from the transport-declared content type
	// ("html", "css", "js", an image subtype, or "bin") and is used only to
	// synthesize default file names for extensionless URLs
	ContentKindHint string `json:"contentKindHint"`
}

// PageBundle is the aggregate output of crawling one page. Membership, not
// order, matters for every collection except InlineImages, whose sequential
// names carry the pairing identity.
type PageBundle struct {
	// URL is the page location this bundle was crawled from
	URL string `json:"url"`
	// Markup is the page document itself; nil only if the markup fetch
	// failed, in which case the crawl as a whole has already failed
	Markup *FetchedArtifact `json:"markup,omitempty"`
	// Stylesheets holds fetched CSS artifacts
	Stylesheets []FetchedArtifact `json:"stylesheets"`
	// Scripts holds fetched JS artifacts
	Scripts []FetchedArtifact `json:"scripts"`
	// Images holds fetched image artifacts
	Images []FetchedArtifact `json:"images"`
	// InlineImages holds data-URI images found in the markup
	InlineImages []InlineImage `json:"inlineImages"`
	// Failed lists resource URLs whose fetch failed; for diff purposes they
	// are treated identically to never-referenced resources
	Failed []string `json:"failed,omitempty"`
}

// DiffResult is the complete core-to-report contract: one ordered sequence of
// DiffRecord per artifact kind. Empty sequences mean "no differences found"
// for that kind.
type DiffResult struct {
	Markup      []DiffRecord `json:"markup"`
	Stylesheets []DiffRecord `json:"stylesheets"`
	Scripts     []DiffRecord `json:"scripts"`
	Images      []DiffRecord `json:"images"`
}

var (
	// ErrMarkupUnavailable is returned when a page's own markup cannot be
	// fetched. It is distinct from "no differences found" so callers can
	// abort report generation instead of producing a misleadingly empty
	// report.
	ErrMarkupUnavailable = errors.New("page markup unavailable")
	// ErrUnsupportedHashAlgorithm is returned for hash algorithm names
	// outside xxhash, md5 and sha256
	ErrUnsupportedHashAlgorithm = errors.New("unsupported hash algorithm")
)

// Compare crawls both page variants in parallel and diffs the resulting
// bundles. The two crawls share no mutable state: each gets its own
// PageCrawler and therefore its own connection-reusing HTTP client.
func Compare(ctx context.Context, cfg *CrawlConfig, workingURL, brokenURL string) (*DiffResult, error) {
	var (
		wg                    sync.WaitGroup
		workingBundle         *PageBundle
		brokenBundle          *PageBundle
		workingErr, brokenErr error
	)

	crawlOne := func(pageURL string, bundle **PageBundle, errOut *error) {
		defer wg.Done()
		crawler, err := NewPageCrawler(cfg)
		if err != nil {
			*errOut = err
			return
		}
		*bundle, *errOut = crawler.Crawl(ctx, pageURL)
	}

	wg.Add(2)
	go crawlOne(workingURL, &workingBundle, &workingErr)
	go crawlOne(brokenURL, &brokenBundle, &brokenErr)
	wg.Wait()

	if workingErr != nil {
		return nil, fmt.Errorf("working page: %w", workingErr)
	}
	if brokenErr != nil {
		return nil, fmt.Errorf("broken page: %w", brokenErr)
	}

	engine, err := NewDiffEngine(workingURL, brokenURL, cfg)
	if err != nil {
		return nil, err
	}
	return engine.CompareBundles(workingBundle, brokenBundle)
}
