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
	"os"
	"path/filepath"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"
)

// previewLength caps data URI previews in diff records
const previewLength = 100

// Comparison verdicts. Data URI variants keep inline images visually
// distinct from fetched ones in reports.
const (
	StatusIdentical        = "identical"
	StatusDifferent        = "different"
	StatusTextOnly         = "different (text only)"
	StatusHashMismatch     = "hash mismatch"
	StatusMissingInBroken  = "missing in broken"
	StatusMissingInWorking = "missing in working"

	StatusIdenticalData        = "identical (data URI)"
	StatusHashMismatchData     = "hash mismatch (data URI)"
	StatusMissingInBrokenData  = "missing in broken (data URI)"
	StatusMissingInWorkingData = "missing in working (data URI)"
)

// DiffRecord is the verdict for one artifact pair. Diff holds a unified text
// diff for textual artifacts; Changes holds structural markup changes;
// hashes and previews are filled only for image verdicts.
type DiffRecord struct {
	File           string             `json:"file"`
	Status         string             `json:"status"`
	Diff           string             `json:"diff,omitempty"`
	Changes        []StructuralChange `json:"changes,omitempty"`
	WorkingHash    string             `json:"working_hash,omitempty"`
	BrokenHash     string             `json:"broken_hash,omitempty"`
	WorkingPreview string             `json:"working_preview,omitempty"`
	BrokenPreview  string             `json:"broken_preview,omitempty"`
}

// DiffEngine compares two crawled page bundles artifact by artifact.
// Artifacts pair by local file name, so the same resource served from the
// two environments under different hosts or paths still lines up.
type DiffEngine struct {
	filter        *ContentFilter
	hashAlgorithm string
	log           zerolog.Logger
}

// NewDiffEngine builds an engine whose content filter masks both page
// hostnames before textual comparison
func NewDiffEngine(workingURL, brokenURL string, cfg *CrawlConfig) (*DiffEngine, error) {
	if cfg == nil {
		cfg = NewDefaultCrawlConfig()
	}
	filter, err := NewContentFilter(workingURL, brokenURL)
	if err != nil {
		return nil, err
	}
	return &DiffEngine{
		filter:        filter,
		hashAlgorithm: cfg.HashAlgorithm,
		log:           cfg.Logger,
	}, nil
}

// CompareBundles diffs every artifact of the two bundles and groups the
// verdicts by kind. Records within each group are ordered by file name; the
// result is deterministic for the same pair of bundles.
func (e *DiffEngine) CompareBundles(working, broken *PageBundle) (*DiffResult, error) {
	markup, err := e.compareMarkup(working, broken)
	if err != nil {
		return nil, err
	}

	stylesheets, err := e.compareTextArtifacts(working.Stylesheets, broken.Stylesheets, KindStylesheet)
	if err != nil {
		return nil, err
	}
	scripts, err := e.compareTextArtifacts(working.Scripts, broken.Scripts, KindScript)
	if err != nil {
		return nil, err
	}
	images, err := e.compareImages(working.Images, broken.Images)
	if err != nil {
		return nil, err
	}
	images = append(images, e.compareInlineImages(working.InlineImages, broken.InlineImages)...)

	return &DiffResult{
		Markup:      markup,
		Stylesheets: stylesheets,
		Scripts:     scripts,
		Images:      images,
	}, nil
}

// compareMarkup produces at most one record: a structural tree diff over the
// raw markup plus a unified diff over the normalized, filtered text. When
// only the text differs the verdict downgrades to "different (text only)",
// which usually means formatting or environment-specific noise. Pages with
// neither kind of difference produce no record at all.
func (e *DiffEngine) compareMarkup(working, broken *PageBundle) ([]DiffRecord, error) {
	if working.Markup == nil || broken.Markup == nil {
		return nil, fmt.Errorf("%w: bundle has no markup artifact", ErrMarkupUnavailable)
	}

	workingRaw, err := os.ReadFile(working.Markup.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("read markup %s: %w", working.Markup.LocalPath, err)
	}
	brokenRaw, err := os.ReadFile(broken.Markup.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("read markup %s: %w", broken.Markup.LocalPath, err)
	}

	workingTree, err := ParseTree(workingRaw)
	if err != nil {
		return nil, err
	}
	brokenTree, err := ParseTree(brokenRaw)
	if err != nil {
		return nil, err
	}
	changes := DiffTrees(workingTree, brokenTree)

	workingText := e.normalizeForDiff(string(workingRaw), KindMarkup, working.Markup.LocalPath)
	brokenText := e.normalizeForDiff(string(brokenRaw), KindMarkup, broken.Markup.LocalPath)
	textDiff, err := unifiedDiff(workingText, brokenText, "working.html", "broken.html")
	if err != nil {
		return nil, err
	}

	if len(changes) == 0 && textDiff == "" {
		return []DiffRecord{}, nil
	}
	record := DiffRecord{File: "markup", Status: StatusTextOnly, Diff: textDiff}
	if len(changes) > 0 {
		record.Status = StatusDifferent
		record.Changes = changes
	}
	return []DiffRecord{record}, nil
}

// compareTextArtifacts pairs stylesheets or scripts by file name and diffs
// the normalized, filtered content of each pair. Pairs whose normalized
// content is equal produce no record; only differences and one-sided files
// are reported.
func (e *DiffEngine) compareTextArtifacts(working, broken []FetchedArtifact, kind ResourceKind) ([]DiffRecord, error) {
	workingByName := artifactsByName(working)
	brokenByName := artifactsByName(broken)

	records := make([]DiffRecord, 0, len(workingByName))
	for _, name := range sortedNameUnion(workingByName, brokenByName) {
		workingArtifact, inWorking := workingByName[name]
		brokenArtifact, inBroken := brokenByName[name]

		switch {
		case !inBroken:
			records = append(records, DiffRecord{File: name, Status: StatusMissingInBroken})
		case !inWorking:
			records = append(records, DiffRecord{File: name, Status: StatusMissingInWorking})
		default:
			record, err := e.diffTextPair(name, workingArtifact, brokenArtifact, kind)
			if err != nil {
				return nil, err
			}
			if record != nil {
				records = append(records, *record)
			}
		}
	}
	return records, nil
}

// diffTextPair returns nil when the pair's normalized content is equal
func (e *DiffEngine) diffTextPair(name string, working, broken FetchedArtifact, kind ResourceKind) (*DiffRecord, error) {
	workingRaw, err := os.ReadFile(working.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", working.LocalPath, err)
	}
	brokenRaw, err := os.ReadFile(broken.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", broken.LocalPath, err)
	}

	workingText := e.normalizeForDiff(string(workingRaw), kind, working.LocalPath)
	brokenText := e.normalizeForDiff(string(brokenRaw), kind, broken.LocalPath)

	if workingText == brokenText {
		return nil, nil
	}

	diff, err := unifiedDiff(workingText, brokenText, "working_"+name, "broken_"+name)
	if err != nil {
		return nil, err
	}
	return &DiffRecord{File: name, Status: StatusDifferent, Diff: diff}, nil
}

// compareImages pairs fetched images by file name and compares content
// hashes; byte-level diffs of binaries are useless to a reader
func (e *DiffEngine) compareImages(working, broken []FetchedArtifact) ([]DiffRecord, error) {
	workingByName := artifactsByName(working)
	brokenByName := artifactsByName(broken)

	records := make([]DiffRecord, 0, len(workingByName))
	for _, name := range sortedNameUnion(workingByName, brokenByName) {
		workingArtifact, inWorking := workingByName[name]
		brokenArtifact, inBroken := brokenByName[name]

		switch {
		case !inBroken:
			records = append(records, DiffRecord{File: name, Status: StatusMissingInBroken})
		case !inWorking:
			records = append(records, DiffRecord{File: name, Status: StatusMissingInWorking})
		default:
			workingHash, err := e.hashFile(workingArtifact.LocalPath)
			if err != nil {
				return nil, err
			}
			brokenHash, err := e.hashFile(brokenArtifact.LocalPath)
			if err != nil {
				return nil, err
			}
			record := DiffRecord{File: name, Status: StatusIdentical}
			if workingHash != brokenHash {
				record.Status = StatusHashMismatch
				record.WorkingHash = workingHash
				record.BrokenHash = brokenHash
			}
			records = append(records, record)
		}
	}
	return records, nil
}

// compareInlineImages pairs data URI images by their synthetic names and
// compares the full URI content. Every record carries truncated previews of
// the content each side has; equality is always decided on the full URI.
func (e *DiffEngine) compareInlineImages(working, broken []InlineImage) []DiffRecord {
	workingByName := make(map[string]InlineImage, len(working))
	for _, img := range working {
		workingByName[img.Name] = img
	}
	brokenByName := make(map[string]InlineImage, len(broken))
	for _, img := range broken {
		brokenByName[img.Name] = img
	}

	names := make([]string, 0, len(workingByName))
	for name := range workingByName {
		names = append(names, name)
	}
	for name := range brokenByName {
		if _, ok := workingByName[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	records := make([]DiffRecord, 0, len(names))
	for _, name := range names {
		workingImg, inWorking := workingByName[name]
		brokenImg, inBroken := brokenByName[name]

		switch {
		case !inBroken:
			records = append(records, DiffRecord{
				File:           name,
				Status:         StatusMissingInBrokenData,
				WorkingPreview: truncatePreview(workingImg.Content),
			})
		case !inWorking:
			records = append(records, DiffRecord{
				File:          name,
				Status:        StatusMissingInWorkingData,
				BrokenPreview: truncatePreview(brokenImg.Content),
			})
		case workingImg.Content == brokenImg.Content:
			records = append(records, DiffRecord{
				File:           name,
				Status:         StatusIdenticalData,
				WorkingPreview: truncatePreview(workingImg.Content),
				BrokenPreview:  truncatePreview(brokenImg.Content),
			})
		default:
			records = append(records, DiffRecord{
				File:           name,
				Status:         StatusHashMismatchData,
				WorkingPreview: truncatePreview(workingImg.Content),
				BrokenPreview:  truncatePreview(brokenImg.Content),
			})
		}
	}
	return records
}

// normalizeForDiff normalizes then filters content; when normalization fails
// the raw content is filtered instead so the comparison still happens
func (e *DiffEngine) normalizeForDiff(content string, kind ResourceKind, localPath string) string {
	normalized, err := Normalize(content, kind)
	if err != nil {
		e.log.Warn().Str("path", localPath).Err(err).Msg("normalization failed, diffing raw content")
		normalized = content
	}
	return e.filter.Apply(normalized)
}

func (e *DiffEngine) hashFile(localPath string) (string, error) {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", localPath, err)
	}
	return hashContent(content, e.hashAlgorithm)
}

func unifiedDiff(working, broken, fromLabel, toLabel string) (string, error) {
	if working == broken {
		return "", nil
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(working),
		B:        difflib.SplitLines(broken),
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("compute unified diff: %w", err)
	}
	return diff, nil
}

func artifactsByName(artifacts []FetchedArtifact) map[string]FetchedArtifact {
	byName := make(map[string]FetchedArtifact, len(artifacts))
	for _, artifact := range artifacts {
		byName[filepath.Base(artifact.LocalPath)] = artifact
	}
	return byName
}

// sortedNameUnion returns the union of both maps' keys in sorted order
func sortedNameUnion(working, broken map[string]FetchedArtifact) []string {
	names := make([]string, 0, len(working))
	for name := range working {
		names = append(names, name)
	}
	for name := range broken {
		if _, ok := working[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func truncatePreview(content string) string {
	if len(content) <= previewLength {
		return content
	}
	return content[:previewLength] + "..."
}
