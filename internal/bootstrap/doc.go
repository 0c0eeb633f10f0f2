// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bootstrap wires the symdex components for the CLI.
//
// InitProject writes a starter .symdex/config.yaml and creates the
// workspace. Open builds a Pipeline from a loaded configuration:
//
//	cfg, err := config.LoadConfig(configPath)
//	if err != nil {
//	    return err
//	}
//	p := bootstrap.Open(cfg, logger)
//	defer p.Close()
//
//	snap, err := p.Acquirer().CloneRepo(ctx, url, repo.CloneOptions{})
//	idx, err := p.Index(snap.LocalPath)
//	res, err := idx.IndexRepository(ctx, snap.LocalPath, nil, nil)
//
// All indexes opened through one Pipeline share its grammar registry and
// symbol cache.
package bootstrap
