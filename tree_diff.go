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
	"sort"
	"strings"
)

// ChangeKind classifies one structural difference between two markup trees
type ChangeKind string

const (
	ChangeAttribute   ChangeKind = "attribute-changed"
	ChangeText        ChangeKind = "text-changed"
	ChangeNodeAdded   ChangeKind = "node-added"
	ChangeNodeRemoved ChangeKind = "node-removed"
)

// StructuralChange is one difference found by DiffTrees. Path locates the
// nearest shared ancestor as a "html > body > div" chain. Working and Broken
// hold the differing values on each side; added/removed changes describe the
// node on the side that has it and leave the other empty.
type StructuralChange struct {
	Path    string     `json:"path"`
	Kind    ChangeKind `json:"kind"`
	Attr    string     `json:"attr,omitempty"`
	Working string     `json:"working,omitempty"`
	Broken  string     `json:"broken,omitempty"`
}

// DiffTrees walks two markup trees in lockstep and reports their structural
// differences. Children with the same tag are matched greedily: subtrees
// equal on both sides pair off first regardless of position, so reordering
// identical siblings reports nothing; the remainder pairs in document order
// and recurses, and unpaired leftovers become added/removed records.
func DiffTrees(working, broken *Node) []StructuralChange {
	changes := make([]StructuralChange, 0)
	diffNodes(working, broken, []string{}, &changes)
	return changes
}

func diffNodes(working, broken *Node, path []string, changes *[]StructuralChange) {
	here := path
	if !working.isText() && working.Tag != "#document" {
		here = append(append([]string{}, path...), working.Tag)
	}

	diffAttributes(working, broken, here, changes)
	diffText(working, broken, here, changes)
	diffChildren(working, broken, here, changes)
}

func diffAttributes(working, broken *Node, path []string, changes *[]StructuralChange) {
	keys := make(map[string]bool, len(working.Attrs)+len(broken.Attrs))
	for key := range working.Attrs {
		keys[key] = true
	}
	for key := range broken.Attrs {
		keys[key] = true
	}

	sorted := make([]string, 0, len(keys))
	for key := range keys {
		sorted = append(sorted, key)
	}
	sort.Strings(sorted)

	for _, key := range sorted {
		workingVal, inWorking := working.Attrs[key]
		brokenVal, inBroken := broken.Attrs[key]
		if inWorking && inBroken && workingVal == brokenVal {
			continue
		}
		*changes = append(*changes, StructuralChange{
			Path:    joinPath(path),
			Kind:    ChangeAttribute,
			Attr:    key,
			Working: workingVal,
			Broken:  brokenVal,
		})
	}
}

// diffText compares the concatenated direct text of both nodes as one run, so
// text split differently across child text nodes still compares equal
func diffText(working, broken *Node, path []string, changes *[]StructuralChange) {
	workingText := directText(working)
	brokenText := directText(broken)
	if workingText == brokenText {
		return
	}
	*changes = append(*changes, StructuralChange{
		Path:    joinPath(path),
		Kind:    ChangeText,
		Working: workingText,
		Broken:  brokenText,
	})
}

func directText(n *Node) string {
	parts := make([]string, 0, 2)
	for _, child := range n.Children {
		if child.isText() {
			parts = append(parts, child.Text)
		}
	}
	return strings.Join(parts, " ")
}

func diffChildren(working, broken *Node, path []string, changes *[]StructuralChange) {
	workingByTag := groupByTag(working.Children)
	brokenByTag := groupByTag(broken.Children)

	tags := make([]string, 0, len(workingByTag)+len(brokenByTag))
	seen := make(map[string]bool)
	for _, child := range append(working.Children, broken.Children...) {
		if child.isText() || seen[child.Tag] {
			continue
		}
		seen[child.Tag] = true
		tags = append(tags, child.Tag)
	}

	for _, tag := range tags {
		workingGroup := workingByTag[tag]
		brokenGroup := brokenByTag[tag]

		// Pair off subtrees that are deep-equal on both sides first, so a
		// reordered but otherwise identical sibling never shows up as a
		// removal plus an addition.
		workingGroup, brokenGroup = discardEqualPairs(workingGroup, brokenGroup)

		n := len(workingGroup)
		if len(brokenGroup) < n {
			n = len(brokenGroup)
		}
		for i := 0; i < n; i++ {
			diffNodes(workingGroup[i], brokenGroup[i], path, changes)
		}
		for _, extra := range workingGroup[n:] {
			*changes = append(*changes, StructuralChange{
				Path:    joinPath(path),
				Kind:    ChangeNodeRemoved,
				Working: extra.summary(),
			})
		}
		for _, extra := range brokenGroup[n:] {
			*changes = append(*changes, StructuralChange{
				Path:   joinPath(path),
				Kind:   ChangeNodeAdded,
				Broken: extra.summary(),
			})
		}
	}
}

func groupByTag(children []*Node) map[string][]*Node {
	groups := make(map[string][]*Node)
	for _, child := range children {
		if child.isText() {
			continue
		}
		groups[child.Tag] = append(groups[child.Tag], child)
	}
	return groups
}

// discardEqualPairs removes, from both groups, subtrees with a deep-equal
// counterpart on the other side. Document order of the survivors is kept.
func discardEqualPairs(working, broken []*Node) ([]*Node, []*Node) {
	matchedBroken := make([]bool, len(broken))
	workingOut := make([]*Node, 0, len(working))
	for _, w := range working {
		matched := false
		for i, b := range broken {
			if matchedBroken[i] {
				continue
			}
			if w.equal(b) {
				matchedBroken[i] = true
				matched = true
				break
			}
		}
		if !matched {
			workingOut = append(workingOut, w)
		}
	}
	brokenOut := make([]*Node, 0, len(broken))
	for i, b := range broken {
		if !matchedBroken[i] {
			brokenOut = append(brokenOut, b)
		}
	}
	return workingOut, brokenOut
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "#document"
	}
	return strings.Join(path, " > ")
}
