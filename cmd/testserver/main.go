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

// Command testserver serves two variants of a small demo page for trying out
// sitediff locally:
//
//	go run ./cmd/testserver
//	sitediff http://localhost:8090/working/ http://localhost:8090/broken/
//
// The broken variant carries a deliberate markup change, a formatting-only
// stylesheet change, a missing image and a changed script, so every verdict
// kind shows up in the output. Each variant serves its assets under its own
// path prefix; pairing happens by file name, as it would across two hosts.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<link rel="stylesheet" href="/%[1]s/assets/site.css?ver=%[2]s">
<script src="/%[1]s/assets/app.js"></script>
</head>
<body>
<div class="%[3]s">
<h1>Demo Shop</h1>
%[4]s
</div>
</body>
</html>`

const workingCSS = `.hero { color: #222; padding: 2em; }`

// same rules, different formatting; sitediff should call this identical
const brokenCSS = `.hero {
	color: #222;
	padding: 2em;
}`

const workingJS = `function init() { console.log("v1"); }`
const brokenJS = `function init() { console.log("v2"); }`

var logoPNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	flag.Parse()

	workingImages := `<img src="/working/assets/logo.png" alt="logo">
<img src="/working/assets/banner.png" alt="banner">`
	brokenImages := `<img src="/broken/assets/logo.png" alt="logo">`

	mux := http.NewServeMux()
	mux.HandleFunc("/working/", page(fmt.Sprintf(pageTemplate, "working", "1.2.0", "hero", workingImages)))
	mux.HandleFunc("/broken/", page(fmt.Sprintf(pageTemplate, "broken", "1.3.0", "hero hero-v2", brokenImages)))

	mux.HandleFunc("/working/assets/site.css", asset("text/css", workingCSS))
	mux.HandleFunc("/broken/assets/site.css", asset("text/css", brokenCSS))
	mux.HandleFunc("/working/assets/app.js", asset("application/javascript", workingJS))
	mux.HandleFunc("/broken/assets/app.js", asset("application/javascript", brokenJS))
	mux.HandleFunc("/working/assets/logo.png", image(logoPNG))
	mux.HandleFunc("/broken/assets/logo.png", image(logoPNG))
	// banner.png is referenced only by the working page
	mux.HandleFunc("/working/assets/banner.png", image(logoPNG))

	fmt.Printf("test server on %s\n", *addr)
	fmt.Printf("  working: http://localhost%s/working/\n", *addr)
	fmt.Printf("  broken:  http://localhost%s/broken/\n", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

func page(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}
}

func asset(contentType, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		fmt.Fprint(w, body)
	}
}

func image(body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}
}
