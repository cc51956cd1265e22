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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test parsing valid did:wba identifiers
func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"domain root", "did:wba:example.com"},
		{"with port", "did:wba:example.com%3A8800"},
		{"with path", "did:wba:example.com:user:alice"},
		{"port and path", "did:wba:example.com%3A8800:user:alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.in, d.String())
		})
	}
}

// Test parsing rejects malformed identifiers
func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"wrong method", "did:web:example.com"},
		{"no method", "example.com"},
		{"empty msi", "did:wba:"},
		{"empty segment", "did:wba:example.com::alice"},
		{"bad escape", "did:wba:example.com%ZZ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			assert.Error(t, err)
		})
	}
}

// Test host:port decoding of the percent-encoded authority
func TestHostPort(t *testing.T) {
	d, err := Parse("did:wba:example.com%3A8800:user:alice")
	require.NoError(t, err)

	host, err := d.HostPort()
	require.NoError(t, err)
	assert.Equal(t, "example.com:8800", host)
	assert.Equal(t, []string{"user", "alice"}, d.PathSegments())
}

// Test document URL mapping for root and path-scoped DIDs
func TestURL(t *testing.T) {
	root, err := Parse("did:wba:example.com")
	require.NoError(t, err)
	rootURL, err := root.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/.well-known/did.json", rootURL)

	scoped, err := Parse("did:wba:example.com%3A8800:user:alice")
	require.NoError(t, err)
	scopedURL, err := scoped.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com:8800/user/alice/did.json", scopedURL)
}
