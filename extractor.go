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

// extractor.go enumerates every resource referenced by a page. Each
// extraction rule returns its own slice; ExtractPageResources merges and
// de-duplicates them, so no rule shares mutable state with another.

package sitediff

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// background-image: url(...) in inline style attributes; property name
	// matched case-insensitively, quotes optional
	backgroundImagePattern = regexp.MustCompile(`(?i)background-image:\s*url\(\s*["']?([^"')]+?)["']?\s*\)`)

	// url(...) occurrences inside stylesheet content
	cssURLPattern = regexp.MustCompile(`url\(\s*["']?([^"')]+?)["']?\s*\)`)
)

// ExtractPageResources applies every extraction rule to the parsed markup
// document and returns the union of discovered references, resolved against
// baseURL, de-duplicated by (kind, absoluteLocation). Inline data-URI images
// are returned separately; they are never de-duplicated against fetched
// references and carry synthetic sequential names in document order.
func ExtractPageResources(doc *goquery.Document, baseURL string) ([]ResourceReference, []InlineImage) {
	refs := make([]ResourceReference, 0)
	refs = append(refs, extractStylesheetLinks(doc, baseURL)...)
	refs = append(refs, extractScriptSources(doc, baseURL)...)

	imgRefs, inline := extractImgResources(doc, baseURL)
	refs = append(refs, imgRefs...)
	refs = append(refs, extractPictureSources(doc, baseURL)...)
	refs = append(refs, extractInlineStyleImages(doc, baseURL)...)
	refs = append(refs, extractSpriteReferences(doc, baseURL)...)

	return dedupeReferences(refs), inline
}

// ExtractStylesheetImages scans fetched stylesheet content for url(...)
// occurrences and returns one image reference per fetchable URL, resolved
// against the stylesheet's own location rather than the page's.
func ExtractStylesheetImages(cssContent, stylesheetURL string) []ResourceReference {
	refs := make([]ResourceReference, 0)
	for _, match := range cssURLPattern.FindAllStringSubmatch(cssContent, -1) {
		raw := strings.TrimSpace(match[1])
		if raw == "" || strings.HasPrefix(raw, "data:") || strings.HasPrefix(raw, "#") {
			continue
		}
		abs, err := resolveRef(stylesheetURL, raw)
		if err != nil {
			continue
		}
		refs = append(refs, ResourceReference{Kind: KindImage, AbsoluteLocation: abs})
	}
	return dedupeReferences(refs)
}

// extractStylesheetLinks finds <link rel="stylesheet"> references
func extractStylesheetLinks(doc *goquery.Document, baseURL string) []ResourceReference {
	refs := make([]ResourceReference, 0)
	doc.Find(`link[rel~="stylesheet"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		abs, err := resolveRef(baseURL, href)
		if err != nil {
			return
		}
		refs = append(refs, ResourceReference{Kind: KindStylesheet, AbsoluteLocation: abs})
	})
	return refs
}

// extractScriptSources finds <script src="..."> references
func extractScriptSources(doc *goquery.Document, baseURL string) []ResourceReference {
	refs := make([]ResourceReference, 0)
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			return
		}
		abs, err := resolveRef(baseURL, src)
		if err != nil {
			return
		}
		refs = append(refs, ResourceReference{Kind: KindScript, AbsoluteLocation: abs})
	})
	return refs
}

// extractImgResources handles <img> tags: src (data URIs become inline
// entries), srcset candidates, and the data-src lazy-load attribute.
func extractImgResources(doc *goquery.Document, baseURL string) ([]ResourceReference, []InlineImage) {
	refs := make([]ResourceReference, 0)
	inline := make([]InlineImage, 0)

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && strings.TrimSpace(src) != "" {
			src = strings.TrimSpace(src)
			if strings.HasPrefix(src, "data:") {
				inline = append(inline, InlineImage{
					Name:    fmt.Sprintf("data_uri_image_%d", len(inline)),
					Content: src,
				})
			} else if abs, err := resolveRef(baseURL, src); err == nil {
				refs = append(refs, ResourceReference{Kind: KindImage, AbsoluteLocation: abs})
			}
		}

		if srcset, ok := s.Attr("srcset"); ok {
			refs = append(refs, srcsetReferences(srcset, baseURL)...)
		}

		if dataSrc, ok := s.Attr("data-src"); ok {
			dataSrc = strings.TrimSpace(dataSrc)
			if dataSrc != "" && !strings.HasPrefix(dataSrc, "data:") {
				if abs, err := resolveRef(baseURL, dataSrc); err == nil {
					refs = append(refs, ResourceReference{Kind: KindImage, AbsoluteLocation: abs})
				}
			}
		}
	})

	return refs, inline
}

// extractPictureSources finds <picture><source srcset="..."> candidates
func extractPictureSources(doc *goquery.Document, baseURL string) []ResourceReference {
	refs := make([]ResourceReference, 0)
	doc.Find("picture source[srcset]").Each(func(_ int, s *goquery.Selection) {
		if srcset, ok := s.Attr("srcset"); ok {
			refs = append(refs, srcsetReferences(srcset, baseURL)...)
		}
	})
	return refs
}

// extractInlineStyleImages finds background-image URLs in inline style
// attributes on any element
func extractInlineStyleImages(doc *goquery.Document, baseURL string) []ResourceReference {
	refs := make([]ResourceReference, 0)
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, ok := s.Attr("style")
		if !ok {
			return
		}
		for _, match := range backgroundImagePattern.FindAllStringSubmatch(style, -1) {
			raw := strings.TrimSpace(match[1])
			if raw == "" || strings.HasPrefix(raw, "data:") {
				continue
			}
			abs, err := resolveRef(baseURL, raw)
			if err != nil {
				continue
			}
			refs = append(refs, ResourceReference{Kind: KindImage, AbsoluteLocation: abs})
		}
	})
	return refs
}

// extractSpriteReferences finds SVG sprite sheets referenced by
// <use href="path#fragment"> or <use xlink:href="...">. Only the path
// portion is fetchable; the fragment selects a symbol inside it.
func extractSpriteReferences(doc *goquery.Document, baseURL string) []ResourceReference {
	refs := make([]ResourceReference, 0)
	doc.Find("use").Each(func(_ int, s *goquery.Selection) {
		href := useHref(s)
		if href == "" {
			return
		}
		if idx := strings.Index(href, "#"); idx >= 0 {
			href = href[:idx]
		}
		if href == "" {
			return
		}
		abs, err := resolveRef(baseURL, href)
		if err != nil {
			return
		}
		refs = append(refs, ResourceReference{Kind: KindImage, AbsoluteLocation: abs})
	})
	return refs
}

// useHref reads the sprite reference off a <use> element. The xlink:href
// attribute parses differently depending on whether the element sits inside
// an <svg> subtree (namespaced) or not (verbatim key), so the node's
// attributes are inspected directly instead of going through Selection.Attr.
func useHref(s *goquery.Selection) string {
	node := s.Get(0)
	if node == nil {
		return ""
	}
	var plain, xlink string
	for _, attr := range node.Attr {
		switch {
		case attr.Namespace == "" && attr.Key == "href":
			plain = attr.Val
		case attr.Key == "xlink:href" || (attr.Namespace == "xlink" && attr.Key == "href"):
			xlink = attr.Val
		}
	}
	if xlink != "" {
		return strings.TrimSpace(xlink)
	}
	return strings.TrimSpace(plain)
}

// srcsetReferences parses a srcset attribute value into image references.
// Each comma-separated candidate's first whitespace-separated token is the
// URL; descriptors and data: candidates are skipped.
func srcsetReferences(srcset, baseURL string) []ResourceReference {
	refs := make([]ResourceReference, 0)
	for _, candidate := range strings.Split(srcset, ",") {
		fields := strings.Fields(candidate)
		if len(fields) == 0 {
			continue
		}
		urlToken := fields[0]
		if urlToken == "" || strings.HasPrefix(urlToken, "data:") {
			continue
		}
		abs, err := resolveRef(baseURL, urlToken)
		if err != nil {
			continue
		}
		refs = append(refs, ResourceReference{Kind: KindImage, AbsoluteLocation: abs})
	}
	return refs
}

// dedupeReferences collapses duplicate (kind, absoluteLocation) pairs,
// keeping first-seen order
func dedupeReferences(refs []ResourceReference) []ResourceReference {
	seen := make(map[ResourceReference]bool, len(refs))
	out := make([]ResourceReference, 0, len(refs))
	for _, ref := range refs {
		if seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}
