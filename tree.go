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
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Node is one element or text run in a parsed markup tree, reduced to the
// pieces structural comparison cares about. An empty Tag marks a text node;
// element nodes carry their attributes and ordered children. Comments and
// whitespace-only text are dropped at parse time.
type Node struct {
	Tag      string
	Text     string
	Attrs    map[string]string
	Children []*Node
}

// ParseTree parses markup into a comparison tree rooted at a synthetic
// "#document" element
func ParseTree(content []byte) (*Node, error) {
	doc, err := html.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("parse markup tree: %w", err)
	}
	root := &Node{Tag: "#document"}
	for child := doc.FirstChild; child != nil; child = child.NextSibling {
		if reduced := reduceNode(child); reduced != nil {
			root.Children = append(root.Children, reduced)
		}
	}
	return root, nil
}

func reduceNode(n *html.Node) *Node {
	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return nil
		}
		return &Node{Text: text}

	case html.ElementNode:
		node := &Node{Tag: n.Data}
		if len(n.Attr) > 0 {
			node.Attrs = make(map[string]string, len(n.Attr))
			for _, attr := range n.Attr {
				key := attr.Key
				if attr.Namespace != "" {
					key = attr.Namespace + ":" + attr.Key
				}
				node.Attrs[key] = attr.Val
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if reduced := reduceNode(child); reduced != nil {
				node.Children = append(node.Children, reduced)
			}
		}
		return node
	}
	// comments, doctype
	return nil
}

// isText reports whether the node is a text run rather than an element
func (n *Node) isText() bool {
	return n.Tag == ""
}

// equal reports deep equality of two subtrees
func (n *Node) equal(other *Node) bool {
	if n.Tag != other.Tag || n.Text != other.Text {
		return false
	}
	if len(n.Attrs) != len(other.Attrs) {
		return false
	}
	for key, val := range n.Attrs {
		if other.Attrs[key] != val {
			return false
		}
	}
	if len(n.Children) != len(other.Children) {
		return false
	}
	for i, child := range n.Children {
		if !child.equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// summary renders a short single-line description of the node for
// added/removed change records, e.g. `<div class="hero">` or `text "Hello"`
func (n *Node) summary() string {
	if n.isText() {
		text := n.Text
		if len(text) > 40 {
			text = text[:40] + "..."
		}
		return fmt.Sprintf("text %q", text)
	}

	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(n.Tag)
	keys := make([]string, 0, len(n.Attrs))
	for key := range n.Attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&sb, " %s=%q", key, n.Attrs[key])
	}
	sb.WriteByte('>')
	return sb.String()
}
