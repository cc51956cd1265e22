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

// Package anpgo provides version information for anp-go.
package anpgo

const (
	// Version is the current version of anp-go.
	Version = "0.3.0"

	// WBAMethodVersion is the did:wba method specification revision
	// this library implements.
	WBAMethodVersion = "1.0"
)

// VersionInfo contains detailed version information.
type VersionInfo struct {
	Version          string
	WBAMethodVersion string
}

// GetVersionInfo returns detailed version information.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:          Version,
		WBAMethodVersion: WBAMethodVersion,
	}
}
