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
	"fmt"
	"net/url"
	"regexp"
)

// Placeholder tokens substituted for environment-specific substrings so that
// otherwise-identical resources served from different environments compare
// equal.
const (
	// FilteredProtocol replaces http:// and https://
	FilteredProtocol = "[FILTERED_PROTOCOL]"
	// FilteredDomain replaces either page's hostname
	FilteredDomain = "[FILTERED_DOMAIN]"
)

var (
	protocolPattern = regexp.MustCompile(`https?://`)
	// cache-busting version query parameters, digits and dots only
	versionParamPattern = regexp.MustCompile(`\?ver=[0-9.]+`)
)

// ContentFilter masks environment-specific substrings in normalized content
// before diffing. The three passes are independent regexes over disjoint
// patterns, so their order does not affect the result.
type ContentFilter struct {
	hostPatterns []*regexp.Regexp
}

// NewContentFilter builds a filter for the two page locations. When both
// hostnames are equal they collapse to a single pattern.
func NewContentFilter(workingURL, brokenURL string) (*ContentFilter, error) {
	workingHost, err := hostnameOf(workingURL)
	if err != nil {
		return nil, err
	}
	brokenHost, err := hostnameOf(brokenURL)
	if err != nil {
		return nil, err
	}

	patterns := make([]*regexp.Regexp, 0, 2)
	if workingHost != "" {
		patterns = append(patterns, regexp.MustCompile(regexp.QuoteMeta(workingHost)))
	}
	if brokenHost != "" && brokenHost != workingHost {
		patterns = append(patterns, regexp.MustCompile(regexp.QuoteMeta(brokenHost)))
	}

	return &ContentFilter{hostPatterns: patterns}, nil
}

// Apply masks protocol schemes and hostnames with placeholder tokens and
// removes ?ver= cache-busting suffixes
func (f *ContentFilter) Apply(content string) string {
	content = protocolPattern.ReplaceAllString(content, FilteredProtocol)
	for _, pattern := range f.hostPatterns {
		content = pattern.ReplaceAllString(content, FilteredDomain)
	}
	return versionParamPattern.ReplaceAllString(content, "")
}

func hostnameOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse page URL %q: %w", rawURL, err)
	}
	return parsed.Hostname(), nil
}
