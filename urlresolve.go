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
	whatwgUrl "github.com/nlnwa/whatwg-url/url"
)

var urlParser = whatwgUrl.NewParser(whatwgUrl.WithPercentEncodeSinglePercentSign())

// resolveRef resolves ref against base per WHATWG relative-URL resolution and
// returns the absolute location without its fragment. Fragments never reach
// the network, so dropping them here keeps de-duplication by
// (kind, absoluteLocation) honest.
func resolveRef(base, ref string) (string, error) {
	u, err := urlParser.ParseRef(base, ref)
	if err != nil {
		return "", err
	}
	return u.Href(true), nil
}
