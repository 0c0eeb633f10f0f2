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

package repo

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// validGitURLPattern matches ssh remotes: git@host:org/repo.git, ssh://git@host/org/repo.git
	validGitURLPattern = regexp.MustCompile(`^(git@|ssh://)[\w.\-@:/%~]+$`)

	// dangerousCharsPattern matches characters that could be used for command injection
	dangerousCharsPattern = regexp.MustCompile(`[;&|$` + "`" + `\n\r\\<>]`)

	validBranchPattern = regexp.MustCompile(`^[\w.\-/]+$`)

	// urlUserinfoPattern finds credentials embedded in URLs inside free text.
	urlUserinfoPattern = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.\-]*://)[^/@\s]+@`)
)

type remoteKind int

const (
	remoteHTTPS remoteKind = iota
	remoteHTTP
	remoteSSH
	remoteFile
	remoteLocal
)

// ValidateURL checks that gitURL is an https, http, ssh, scp-style or file://
// remote, or an existing local directory. Embedded passwords are rejected.
func ValidateURL(gitURL string) error {
	_, err := classifyURL(gitURL)
	return err
}

func classifyURL(gitURL string) (remoteKind, error) {
	if gitURL == "" {
		return 0, fmt.Errorf("%w: url is empty", ErrInvalidURL)
	}
	if strings.HasPrefix(gitURL, "-") {
		return 0, fmt.Errorf("%w: url must not start with '-'", ErrInvalidURL)
	}
	if dangerousCharsPattern.MatchString(gitURL) {
		return 0, fmt.Errorf("%w: url contains dangerous characters", ErrInvalidURL)
	}

	switch {
	case strings.HasPrefix(gitURL, "https://"), strings.HasPrefix(gitURL, "http://"):
		parsed, err := url.Parse(gitURL)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
		if parsed.Host == "" {
			return 0, fmt.Errorf("%w: url missing host", ErrInvalidURL)
		}
		if parsed.User != nil {
			if _, hasPassword := parsed.User.Password(); hasPassword {
				return 0, fmt.Errorf("%w: url must not contain an embedded password", ErrInvalidURL)
			}
		}
		if parsed.Scheme == "https" {
			return remoteHTTPS, nil
		}
		return remoteHTTP, nil

	case strings.HasPrefix(gitURL, "git@"), strings.HasPrefix(gitURL, "ssh://"):
		if !validGitURLPattern.MatchString(gitURL) {
			return 0, fmt.Errorf("%w: invalid ssh url format", ErrInvalidURL)
		}
		return remoteSSH, nil

	case strings.HasPrefix(gitURL, "file://"):
		if len(gitURL) == len("file://") {
			return 0, fmt.Errorf("%w: file url missing path", ErrInvalidURL)
		}
		return remoteFile, nil
	}

	info, err := os.Stat(gitURL)
	if err != nil || !info.IsDir() {
		return 0, fmt.Errorf("%w: unsupported protocol (must be https://, http://, git@, ssh://, file:// or a local directory)", ErrInvalidURL)
	}
	return remoteLocal, nil
}

// SanitizeURL returns gitURL without userinfo, query or fragment. It is the
// only form of a remote that is logged or returned in a snapshot.
// Scp-style ssh remotes and local paths are returned unchanged.
func SanitizeURL(gitURL string) string {
	if !strings.Contains(gitURL, "://") {
		return gitURL
	}
	parsed, err := url.Parse(gitURL)
	if err != nil {
		return urlUserinfoPattern.ReplaceAllString(gitURL, "$1")
	}
	parsed.User = nil
	parsed.RawQuery = ""
	parsed.ForceQuery = false
	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed.String()
}

// scrubSecrets removes token and any URL userinfo from git output.
func scrubSecrets(text, token string) string {
	if token != "" {
		text = strings.ReplaceAll(text, token, "***")
		text = strings.ReplaceAll(text, url.PathEscape(token), "***")
	}
	return urlUserinfoPattern.ReplaceAllString(text, "$1")
}

// DefaultTargetName derives a checkout name from the last path segment of
// gitURL with any trailing ".git" removed.
func DefaultTargetName(gitURL string) string {
	s := gitURL
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
		if parsed, err := url.Parse(gitURL); err == nil && parsed.Path != "" {
			s = parsed.Path
		}
	} else if strings.HasPrefix(s, "git@") {
		if i := strings.Index(s, ":"); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.ReplaceAll(s, `\`, "/")
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSuffix(s, ".git")
}

// SanitizeTargetName validates a workspace-relative checkout name and returns
// it in clean slash form. Separators are normalised; empty names, absolute
// paths, drive-letter paths and any ".." segment are rejected.
func SanitizeTargetName(name string) (string, error) {
	cleaned, err := cleanRelative(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTargetName, err)
	}
	if strings.HasPrefix(cleaned, "-") {
		return "", fmt.Errorf("%w: %q starts with '-'", ErrInvalidTargetName, name)
	}
	return cleaned, nil
}

func cleanRelative(name string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	if normalized == "" {
		return "", fmt.Errorf("name is empty")
	}
	if strings.HasPrefix(normalized, "/") || filepath.IsAbs(name) || hasDriveLetter(normalized) {
		return "", fmt.Errorf("%q is an absolute path", name)
	}
	for _, seg := range strings.Split(normalized, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%q contains a '..' segment", name)
		}
	}
	cleaned := path.Clean(normalized)
	if cleaned == "." {
		return "", fmt.Errorf("%q names the root", name)
	}
	return cleaned, nil
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// cleanRelPath validates a repository-relative file path.
func cleanRelPath(filePath string) (string, error) {
	cleaned, err := cleanRelative(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return cleaned, nil
}

func validateBranch(branch string) error {
	if branch == "" {
		return nil
	}
	if strings.HasPrefix(branch, "-") || strings.Contains(branch, "..") || !validBranchPattern.MatchString(branch) {
		return fmt.Errorf("%w: %q", ErrInvalidBranch, branch)
	}
	return nil
}
