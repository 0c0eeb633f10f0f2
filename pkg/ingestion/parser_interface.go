// Copyright 2025 KrakLabs
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
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import "context"

// SymbolParser is the extraction surface consumed by the indexer. Tests
// substitute fakes to inject per-file failures.
type SymbolParser interface {
	// ParseFileDetailed parses one file. A nil content reads it from disk.
	ParseFileDetailed(ctx context.Context, filePath string, content []byte) (*FileParse, error)

	// TruncatedCount returns the number of symbol bodies that were truncated.
	TruncatedCount() int

	// ResetTruncatedCount resets the truncation counter.
	ResetTruncatedCount()
}

var _ SymbolParser = (*Extractor)(nil)
