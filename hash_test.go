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
	"errors"
	"testing"
)

func TestHashContentAlgorithms(t *testing.T) {
	content := []byte("hello world")

	cases := []struct {
		algorithm string
		length    int
	}{
		{"xxhash", 16},
		{"", 16},
		{"md5", 32},
		{"sha256", 64},
		{"XXHASH", 16},
	}
	for _, tc := range cases {
		sum, err := hashContent(content, tc.algorithm)
		if err != nil {
			t.Errorf("hashContent(%q): %v", tc.algorithm, err)
			continue
		}
		if len(sum) != tc.length {
			t.Errorf("hashContent(%q) produced %d hex chars, want %d", tc.algorithm, len(sum), tc.length)
		}
	}
}

func TestHashContentDeterministic(t *testing.T) {
	a, err := hashContent([]byte("same"), "xxhash")
	if err != nil {
		t.Fatal(err)
	}
	b, err := hashContent([]byte("same"), "xxhash")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("same content hashed differently: %s vs %s", a, b)
	}

	c, err := hashContent([]byte("other"), "xxhash")
	if err != nil {
		t.Fatal(err)
	}
	if a == c {
		t.Error("different content produced the same hash")
	}
}

func TestHashContentUnsupportedAlgorithm(t *testing.T) {
	_, err := hashContent([]byte("x"), "crc32")
	if err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
	if !errors.Is(err, ErrUnsupportedHashAlgorithm) {
		t.Errorf("expected ErrUnsupportedHashAlgorithm, got %v", err)
	}
}

func TestResolveRef(t *testing.T) {
	cases := []struct {
		base string
		ref  string
		want string
	}{
		{"https://example.com/page/", "style.css", "https://example.com/page/style.css"},
		{"https://example.com/page/", "/abs/app.js", "https://example.com/abs/app.js"},
		{"https://example.com/page/", "//cdn.example.net/lib.js", "https://cdn.example.net/lib.js"},
		{"https://example.com/a/b/c.css", "../img/x.png", "https://example.com/a/img/x.png"},
		{"https://example.com/", "https://other.example.org/y.png", "https://other.example.org/y.png"},
	}
	for _, tc := range cases {
		got, err := resolveRef(tc.base, tc.ref)
		if err != nil {
			t.Errorf("resolveRef(%q, %q): %v", tc.base, tc.ref, err)
			continue
		}
		if got != tc.want {
			t.Errorf("resolveRef(%q, %q) = %q, want %q", tc.base, tc.ref, got, tc.want)
		}
	}
}

func TestResolveRefStripsFragment(t *testing.T) {
	got, err := resolveRef("https://example.com/", "/sprites.svg#icon")
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://example.com/sprites.svg" {
		t.Errorf("fragment survived resolution: %q", got)
	}
}
