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

// normalize.go canonicalizes artifact content per kind so that two artifacts
// differing only in formatting compare equal. Normalize is a pure function
// of (content, kind); it holds no state and touches no I/O.

package sitediff

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ditashi/jsbeautifier-go/jsbeautifier"
	"golang.org/x/net/html"
)

var (
	cssCommentPattern    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRunPattern = regexp.MustCompile(`\s+`)
)

// voidElements render without a closing tag
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// rawTextElements carry text that must not be entity-escaped on output
var rawTextElements = map[string]bool{
	"script": true, "style": true,
}

// Normalize canonicalizes one artifact's content for its kind:
//
//   - markup: parse, drop all comment nodes, re-emit one node per line,
//     drop lines that are empty after trimming
//   - stylesheet: strip /* */ comments, collapse every whitespace run to a
//     single space, trim
//   - script: deterministic beautification so formatting-only edits vanish
//
// Unrecognized kinds pass through unchanged.
func Normalize(content string, kind ResourceKind) (string, error) {
	switch kind {
	case KindMarkup:
		return normalizeMarkup(content)
	case KindStylesheet:
		return normalizeStylesheet(content), nil
	case KindScript:
		return normalizeScript(content)
	}
	return content, nil
}

func normalizeStylesheet(content string) string {
	content = cssCommentPattern.ReplaceAllString(content, "")
	content = whitespaceRunPattern.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}

func normalizeScript(content string) (string, error) {
	beautified, err := jsbeautifier.Beautify(&content, jsbeautifier.DefaultOptions())
	if err != nil {
		return "", fmt.Errorf("beautify script: %w", err)
	}
	return beautified, nil
}

func normalizeMarkup(content string) (string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}
	lines := make([]string, 0, 64)
	emitNode(doc, false, &lines)
	return strings.Join(lines, "\n"), nil
}

// emitNode renders n one tag or text run per line, skipping comments and
// whitespace-only text. rawText marks script/style subtrees whose content
// must be emitted verbatim rather than entity-escaped.
func emitNode(n *html.Node, rawText bool, lines *[]string) {
	switch n.Type {
	case html.CommentNode:
		return

	case html.DoctypeNode:
		*lines = append(*lines, "<!DOCTYPE "+n.Data+">")
		return

	case html.TextNode:
		for _, line := range strings.Split(n.Data, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if !rawText {
				line = html.EscapeString(line)
			}
			*lines = append(*lines, line)
		}
		return

	case html.ElementNode:
		*lines = append(*lines, openTag(n))
		raw := rawText || rawTextElements[n.Data]
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			emitNode(child, raw, lines)
		}
		if !voidElements[n.Data] {
			*lines = append(*lines, "</"+n.Data+">")
		}
		return

	case html.DocumentNode:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			emitNode(child, rawText, lines)
		}
	}
}

// openTag renders an element's opening tag with attributes in source order
func openTag(n *html.Node) string {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(n.Data)
	for _, attr := range n.Attr {
		sb.WriteByte(' ')
		if attr.Namespace != "" {
			sb.WriteString(attr.Namespace)
			sb.WriteByte(':')
		}
		sb.WriteString(attr.Key)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(attr.Val))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	return sb.String()
}
