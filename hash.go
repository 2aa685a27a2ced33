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
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// hashContent computes a content hash using the configured algorithm.
// xxHash is the fastest and the default; md5 and sha256 are available when a
// cryptographic digest is wanted in the report.
func hashContent(content []byte, algorithm string) (string, error) {
	switch strings.ToLower(algorithm) {
	case "xxhash", "":
		return fmt.Sprintf("%016x", xxhash.Sum64(content)), nil

	case "md5":
		sum := md5.Sum(content)
		return hex.EncodeToString(sum[:]), nil

	case "sha256":
		sum := sha256.Sum256(content)
		return hex.EncodeToString(sum[:]), nil

	default:
		return "", fmt.Errorf("%w: %s (supported: xxhash, md5, sha256)", ErrUnsupportedHashAlgorithm, algorithm)
	}
}
