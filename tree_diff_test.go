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
	"strings"
	"testing"
)

func diffMarkup(t *testing.T, working, broken string) []StructuralChange {
	t.Helper()
	workingTree, err := ParseTree([]byte(working))
	if err != nil {
		t.Fatalf("parsing working markup: %v", err)
	}
	brokenTree, err := ParseTree([]byte(broken))
	if err != nil {
		t.Fatalf("parsing broken markup: %v", err)
	}
	return DiffTrees(workingTree, brokenTree)
}

func TestDiffTreesIdentical(t *testing.T) {
	markup := `<html><body><div class="a"><p>hi</p></div></body></html>`
	changes := diffMarkup(t, markup, markup)
	if len(changes) != 0 {
		t.Fatalf("expected no changes, got %v", changes)
	}
}

func TestDiffTreesAttributeChange(t *testing.T) {
	changes := diffMarkup(t,
		`<html><body><div class="hero"></div></body></html>`,
		`<html><body><div class="hero hero-v2"></div></body></html>`)

	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %v", changes)
	}
	change := changes[0]
	if change.Kind != ChangeAttribute {
		t.Errorf("expected %s, got %s", ChangeAttribute, change.Kind)
	}
	if change.Attr != "class" {
		t.Errorf("expected attr class, got %q", change.Attr)
	}
	if change.Working != "hero" || change.Broken != "hero hero-v2" {
		t.Errorf("unexpected values: %q -> %q", change.Working, change.Broken)
	}
	if change.Path != "html > body > div" {
		t.Errorf("unexpected path %q", change.Path)
	}
}

func TestDiffTreesAttributeAddedAndRemoved(t *testing.T) {
	changes := diffMarkup(t,
		`<html><body><img src="a.png" alt="logo"></body></html>`,
		`<html><body><img src="a.png" loading="lazy"></body></html>`)

	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %v", changes)
	}
	// union of attribute keys is reported in sorted order
	if changes[0].Attr != "alt" || changes[0].Working != "logo" || changes[0].Broken != "" {
		t.Errorf("unexpected first change %+v", changes[0])
	}
	if changes[1].Attr != "loading" || changes[1].Working != "" || changes[1].Broken != "lazy" {
		t.Errorf("unexpected second change %+v", changes[1])
	}
}

func TestDiffTreesTextChange(t *testing.T) {
	changes := diffMarkup(t,
		`<html><body><h1>Welcome</h1></body></html>`,
		`<html><body><h1>Maintenance</h1></body></html>`)

	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %v", changes)
	}
	if changes[0].Kind != ChangeText {
		t.Errorf("expected %s, got %s", ChangeText, changes[0].Kind)
	}
	if changes[0].Working != "Welcome" || changes[0].Broken != "Maintenance" {
		t.Errorf("unexpected values: %q -> %q", changes[0].Working, changes[0].Broken)
	}
	if changes[0].Path != "html > body > h1" {
		t.Errorf("unexpected path %q", changes[0].Path)
	}
}

func TestDiffTreesNodeAddedAndRemoved(t *testing.T) {
	changes := diffMarkup(t,
		`<html><body><div><span class="old">x</span></div></body></html>`,
		`<html><body><div><p class="new">y</p></div></body></html>`)

	var added, removed int
	for _, change := range changes {
		switch change.Kind {
		case ChangeNodeAdded:
			added++
			if !strings.Contains(change.Broken, `<p class="new">`) {
				t.Errorf("unexpected added summary %q", change.Broken)
			}
		case ChangeNodeRemoved:
			removed++
			if !strings.Contains(change.Working, `<span class="old">`) {
				t.Errorf("unexpected removed summary %q", change.Working)
			}
		}
	}
	if added != 1 || removed != 1 {
		t.Fatalf("expected 1 added and 1 removed, got %v", changes)
	}
}

func TestDiffTreesReorderedIdenticalSiblings(t *testing.T) {
	changes := diffMarkup(t,
		`<html><body><div id="a">one</div><div id="b">two</div></body></html>`,
		`<html><body><div id="b">two</div><div id="a">one</div></body></html>`)

	if len(changes) != 0 {
		t.Fatalf("reordered identical siblings reported as changes: %v", changes)
	}
}

func TestDiffTreesPairsRemainderInOrder(t *testing.T) {
	// first div identical on both sides, second div differs; the identical
	// pair must absorb itself and leave one attribute change
	changes := diffMarkup(t,
		`<html><body><div class="same"></div><div class="x"></div></body></html>`,
		`<html><body><div class="same"></div><div class="y"></div></body></html>`)

	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %v", changes)
	}
	if changes[0].Attr != "class" || changes[0].Working != "x" || changes[0].Broken != "y" {
		t.Errorf("unexpected change %+v", changes[0])
	}
}

func TestDiffTreesIgnoresComments(t *testing.T) {
	changes := diffMarkup(t,
		`<html><body><!-- generated at 10:00 --><p>hi</p></body></html>`,
		`<html><body><!-- generated at 11:00 --><p>hi</p></body></html>`)

	if len(changes) != 0 {
		t.Fatalf("comment-only difference reported: %v", changes)
	}
}
