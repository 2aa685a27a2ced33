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
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kennygrant/sanitize"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// safeNamePattern matches basenames that need no cleaning; anything else is
// run through sanitize so the name is filesystem-safe on every platform
var safeNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Fetcher retrieves resources over HTTP(S) and persists them under a
// deterministic local path derived from each URL's own path structure.
// One Fetcher serves one page crawl; its client reuses connections across
// the crawl but is never shared between the two pages.
type Fetcher struct {
	client        *http.Client
	baseDir       string
	userAgent     string
	detectCharset bool
	hashAlgorithm string
}

// NewFetcher creates a Fetcher writing artifacts under baseDir (usually
// <output>/<hostname>). The client is owned by the caller so tests can
// install a mock transport.
func NewFetcher(client *http.Client, baseDir string, cfg *CrawlConfig) *Fetcher {
	return &Fetcher{
		client:        client,
		baseDir:       baseDir,
		userAgent:     cfg.UserAgent,
		detectCharset: cfg.DetectCharset,
		hashAlgorithm: cfg.HashAlgorithm,
	}
}

// Fetch retrieves one resolved reference. On a non-2xx response or transport
// error no artifact is produced and no retry is attempted; the error is the
// caller's diagnostic. Local file naming is deterministic so repeated runs
// against the two page variants produce pairable basenames.
func (f *Fetcher) Fetch(ctx context.Context, ref ResourceReference) (*FetchedArtifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.AbsoluteLocation, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", ref.AbsoluteLocation, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref.AbsoluteLocation, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", ref.AbsoluteLocation, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", ref.AbsoluteLocation, err)
	}

	contentType := res.Header.Get("Content-Type")
	hint := classifyContentKind(contentType)

	if f.detectCharset && isTextKind(hint) && !strings.Contains(strings.ToLower(contentType), "charset") {
		body = transcodeToUTF8(body)
	}

	localPath, err := f.localPathFor(ref.AbsoluteLocation, hint, body)
	if err != nil {
		return nil, fmt.Errorf("derive local path for %s: %w", ref.AbsoluteLocation, err)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", localPath, err)
	}
	if err := os.WriteFile(localPath, body, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", localPath, err)
	}

	return &FetchedArtifact{
		Kind:            ref.Kind,
		SourceLocation:  ref.AbsoluteLocation,
		LocalPath:       localPath,
		ContentKindHint: hint,
	}, nil
}

// localPathFor derives the artifact's on-disk location. A path basename with
// a file extension is used verbatim; otherwise the URL's directory structure
// is preserved and a default filename is synthesized from the content kind.
// Comparison later matches resources strictly by basename, so ambiguous URLs
// must name identically on both crawls.
func (f *Fetcher) localPathFor(rawURL, hint string, body []byte) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	urlPath := parsed.Path
	name := path.Base(urlPath)
	if name == "/" || name == "." {
		name = ""
	}

	dir := strings.TrimPrefix(urlPath, "/")
	if name != "" && strings.Contains(name, ".") {
		dir = path.Dir(dir)
		if dir == "." {
			dir = ""
		}
	} else {
		// Extensionless segment: treat the whole path as a directory and
		// synthesize the filename below.
		name = ""
	}

	if name == "" {
		name, err = f.defaultFileName(rawURL, hint, body)
		if err != nil {
			return "", err
		}
	}

	return filepath.Join(f.baseDir, filepath.FromSlash(dir), safeFileName(name)), nil
}

// defaultFileName synthesizes a filename for URLs whose path carries none
func (f *Fetcher) defaultFileName(rawURL, hint string, body []byte) (string, error) {
	switch hint {
	case "html":
		return "index.html", nil
	case "css":
		return "style.css", nil
	case "js":
		return "script.js", nil
	}
	sum, err := hashContent(body, f.hashAlgorithm)
	if err != nil {
		return "", err
	}
	ext := hint
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("resource_%s.%s", sum, ext), nil
}

// classifyContentKind maps a transport-declared content type onto the small
// vocabulary used for default file naming: "html", "css", "js", an image
// subtype such as "png", or "bin" for everything else.
func classifyContentKind(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "html"):
		return "html"
	case strings.Contains(ct, "css"):
		return "css"
	case strings.Contains(ct, "javascript"):
		return "js"
	case strings.Contains(ct, "image"):
		if idx := strings.Index(ct, "/"); idx >= 0 {
			subtype := ct[idx+1:]
			if semi := strings.Index(subtype, ";"); semi >= 0 {
				subtype = subtype[:semi]
			}
			subtype = strings.TrimSpace(subtype)
			if subtype != "" {
				return subtype
			}
		}
		return "bin"
	}
	return "bin"
}

func isTextKind(hint string) bool {
	return hint == "html" || hint == "css" || hint == "js"
}

// transcodeToUTF8 best-effort decodes body into UTF-8 when the server did
// not declare a charset. Detection or decoding trouble leaves the bytes
// untouched; a wrong guess must never lose the artifact.
func transcodeToUTF8(body []byte) []byte {
	result, err := chardet.NewTextDetector().DetectBest(body)
	if err != nil || result == nil || result.Charset == "" {
		return body
	}
	reader, err := charset.NewReaderLabel(result.Charset, bytes.NewReader(body))
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return body
	}
	return decoded
}

// safeFileName cleans a basename for the local filesystem while keeping
// common names verbatim, since pairing depends on basename stability
func safeFileName(name string) string {
	if safeNamePattern.MatchString(name) {
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	cleaned := sanitize.BaseName(stem)
	if cleaned == "" {
		cleaned = "resource"
	}
	return cleaned + ext
}
