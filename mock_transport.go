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
	"fmt"
	"io"
	"net/http"
	"sync"
)

// MockTransport is an http.RoundTripper serving canned responses by exact
// URL, for tests that exercise crawling without a network. Install it via
// CrawlConfig.Transport. Unregistered URLs get a 404.
type MockTransport struct {
	mu        sync.Mutex
	responses map[string]*mockResponse
	requests  []string
}

type mockResponse struct {
	statusCode  int
	contentType string
	body        []byte
	err         error
}

func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[string]*mockResponse),
	}
}

// RegisterResponse serves body with the given status and content type for
// exact matches of url
func (m *MockTransport) RegisterResponse(url string, statusCode int, contentType string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[url] = &mockResponse{
		statusCode:  statusCode,
		contentType: contentType,
		body:        body,
	}
}

// RegisterHTML serves body as a 200 text/html response
func (m *MockTransport) RegisterHTML(url string, body string) {
	m.RegisterResponse(url, http.StatusOK, "text/html; charset=utf-8", []byte(body))
}

// RegisterCSS serves body as a 200 text/css response
func (m *MockTransport) RegisterCSS(url string, body string) {
	m.RegisterResponse(url, http.StatusOK, "text/css", []byte(body))
}

// RegisterJS serves body as a 200 application/javascript response
func (m *MockTransport) RegisterJS(url string, body string) {
	m.RegisterResponse(url, http.StatusOK, "application/javascript", []byte(body))
}

// RegisterImage serves body as a 200 image response with the given subtype
func (m *MockTransport) RegisterImage(url string, subtype string, body []byte) {
	m.RegisterResponse(url, http.StatusOK, "image/"+subtype, body)
}

// RegisterError makes requests for url fail at the transport level
func (m *MockTransport) RegisterError(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[url] = &mockResponse{err: err}
}

// Requests returns the URLs requested so far, in arrival order
func (m *MockTransport) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.requests...)
}

func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	url := req.URL.String()

	m.mu.Lock()
	m.requests = append(m.requests, url)
	resp, ok := m.responses[url]
	m.mu.Unlock()

	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Status:     "404 Not Found",
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}
	if resp.err != nil {
		return nil, resp.err
	}

	header := make(http.Header)
	if resp.contentType != "" {
		header.Set("Content-Type", resp.contentType)
	}
	return &http.Response{
		StatusCode: resp.statusCode,
		Status:     fmt.Sprintf("%d %s", resp.statusCode, http.StatusText(resp.statusCode)),
		Body:       io.NopCloser(bytes.NewReader(resp.body)),
		Header:     header,
		Request:    req,
	}, nil
}
