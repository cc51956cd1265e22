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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Credentials pairs a local identity's DID document with its private
// key material. Produced externally (provisioning workflow) or via
// NewCredentials; the core only loads and reads them.
type Credentials struct {
	DID      DID
	Document *Document
	Key      KeyPair
}

// NewCredentials generates a fresh identity: a key pair on the given
// curve and a single-method DID document for d.
func NewCredentials(d DID, keyType KeyType) (*Credentials, error) {
	var kp KeyPair
	var err error
	switch keyType {
	case KeyTypeEd25519:
		kp, err = GenerateEd25519(DefaultKeyID)
	case KeyTypeSecp256k1:
		kp, err = GenerateSecp256k1(DefaultKeyID)
	default:
		err = fmt.Errorf("unsupported key type %q", keyType)
	}
	if err != nil {
		return nil, err
	}
	return &Credentials{DID: d, Document: NewDocument(d, kp), Key: kp}, nil
}

// Store holds credentials for the identities hosted by this process,
// keyed by identity name. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	byName map[string]*Credentials
}

// NewStore creates an empty credential store.
func NewStore() *Store {
	return &Store{byName: make(map[string]*Credentials)}
}

// Load registers credentials under the given name. Loading the same
// name twice is an error; keys are never shared across identities.
func (s *Store) Load(name string, creds *Credentials) error {
	if creds == nil || creds.Document == nil || creds.Key == nil {
		return fmt.Errorf("credentials for %q are incomplete", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[name]; exists {
		return fmt.Errorf("credentials for %q already loaded", name)
	}
	s.byName[name] = creds
	return nil
}

// LoadFiles reads a JSON DID document and a hex-encoded private key
// from disk and registers them under the given name. The key curve is
// taken from the document's verification method matching keyID.
func (s *Store) LoadFiles(name, documentPath, keyPath, keyID string) error {
	docBytes, err := os.ReadFile(documentPath)
	if err != nil {
		return fmt.Errorf("failed to read DID document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(docBytes, &doc); err != nil {
		return fmt.Errorf("failed to parse DID document: %w", err)
	}
	d, err := Parse(doc.ID)
	if err != nil {
		return fmt.Errorf("document %s: %w", documentPath, err)
	}

	if keyID == "" {
		keyID = DefaultKeyID
	}
	method, err := doc.FindMethod(keyID)
	if err != nil {
		return err
	}

	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to read private key: %w", err)
	}
	raw, err := hex.DecodeString(strings.TrimSpace(string(keyBytes)))
	if err != nil {
		return fmt.Errorf("private key %s is not hex: %w", keyPath, err)
	}

	var kp KeyPair
	switch method.Type {
	case MethodTypeEd25519:
		kp, err = LoadEd25519(raw, keyID)
	case MethodTypeSecp256k1:
		kp, err = LoadSecp256k1(raw, keyID)
	default:
		err = fmt.Errorf("unsupported verification method type %q", method.Type)
	}
	if err != nil {
		return err
	}

	return s.Load(name, &Credentials{DID: d, Document: &doc, Key: kp})
}

// Get returns the credentials loaded under name.
func (s *Store) Get(name string) (*Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	creds, ok := s.byName[name]
	return creds, ok
}

// Names lists the loaded identity names.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	return names
}
