// Copyright (C) 2026 ANP Community
//
// This file is part of anp-go.
//
// anp-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// anp-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with anp-go.  If not, see <https://www.gnu.org/licenses/>.

package did

import (
	"fmt"
	"net/url"
	"strings"
)

// Prefix is the method prefix for Web-Based-Authentication DIDs.
const Prefix = "did:wba:"

// WellKnownPath is where a domain-root DID document is served.
const WellKnownPath = "/.well-known/did.json"

// DocumentFilename is the document filename for path-scoped DIDs.
const DocumentFilename = "did.json"

// DID is a did:wba identifier. The method-specific part embeds the
// host (with an optional percent-encoded port) followed by optional
// colon-separated path segments:
//
//	did:wba:example.com%3A8800:user:alice
type DID string

// Parse validates s as a did:wba identifier.
func Parse(s string) (DID, error) {
	if !strings.HasPrefix(s, Prefix) {
		return "", fmt.Errorf("not a %q identifier: %q", Prefix, s)
	}
	rest := strings.TrimPrefix(s, Prefix)
	if rest == "" {
		return "", fmt.Errorf("empty method-specific identifier in %q", s)
	}
	segments := strings.Split(rest, ":")
	for _, seg := range segments {
		if seg == "" {
			return "", fmt.Errorf("empty segment in %q", s)
		}
	}
	if _, err := url.PathUnescape(segments[0]); err != nil {
		return "", fmt.Errorf("invalid host encoding in %q: %w", s, err)
	}
	return DID(s), nil
}

// String returns the DID as a plain string.
func (d DID) String() string { return string(d) }

// HostPort decodes the authority segment of the DID. A percent-encoded
// colon (%3A) separates host from port.
func (d DID) HostPort() (string, error) {
	segments, err := d.segments()
	if err != nil {
		return "", err
	}
	host, err := url.PathUnescape(segments[0])
	if err != nil {
		return "", fmt.Errorf("invalid host encoding in %q: %w", d, err)
	}
	return host, nil
}

// PathSegments returns the path segments after the authority, if any.
func (d DID) PathSegments() []string {
	segments, err := d.segments()
	if err != nil || len(segments) < 2 {
		return nil
	}
	return segments[1:]
}

// URL maps the DID to the HTTPS URL of its DID document. Domain-root
// DIDs resolve under /.well-known; path-scoped DIDs resolve at
// <path>/did.json.
func (d DID) URL() (string, error) {
	host, err := d.HostPort()
	if err != nil {
		return "", err
	}
	path := d.PathSegments()
	if len(path) == 0 {
		return "https://" + host + WellKnownPath, nil
	}
	return "https://" + host + "/" + strings.Join(path, "/") + "/" + DocumentFilename, nil
}

func (d DID) segments() ([]string, error) {
	if !strings.HasPrefix(string(d), Prefix) {
		return nil, fmt.Errorf("not a %q identifier: %q", Prefix, d)
	}
	rest := strings.TrimPrefix(string(d), Prefix)
	if rest == "" {
		return nil, fmt.Errorf("empty method-specific identifier in %q", d)
	}
	return strings.Split(rest, ":"), nil
}
