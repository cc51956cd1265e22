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

// Package did implements did:wba identifiers, DID documents, signing
// key pairs, and the credential store for locally hosted identities.
//
// # Identifiers
//
// A did:wba identifier embeds the HTTPS authority that serves its DID
// document, with ':' percent-encoded as %3A:
//
//	d, err := did.Parse("did:wba:example.com%3A8800:user:alice")
//	url, _ := d.URL() // https://example.com:8800/user/alice/did.json
//
// # Credentials
//
// NewCredentials generates a key pair and a matching single-method
// document; Store holds the credentials of every identity a process
// hosts:
//
//	creds, _ := did.NewCredentials(d, did.KeyTypeEd25519)
//	store := did.NewStore()
//	_ = store.Load("alice", creds)
//
// Both Ed25519 (Ed25519VerificationKey2020) and secp256k1
// (EcdsaSecp256k1VerificationKey2019) verification methods are
// supported, with key material in publicKeyHex or publicKeyMultibase
// form.
package did
