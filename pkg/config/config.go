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

// Package config loads YAML agent definitions. It is the collaborator
// surface between process bootstrap and the core: each definition
// yields the (did, name, key material) tuple that router.Register and
// the credential store consume.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agent-network-protocol/anp-go/pkg/did"
)

// AgentDefinition describes one hosted agent.
type AgentDefinition struct {
	DID         string `yaml:"did"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// DocumentPath and KeyPath point at the DID document JSON and the
	// hex-encoded private key produced by the provisioning workflow.
	DocumentPath string `yaml:"document"`
	KeyPath      string `yaml:"key"`

	// KeyID selects the verification method; empty means "#key-1".
	KeyID string `yaml:"keyId,omitempty"`

	// APIPaths lists the paths the agent serves.
	APIPaths []string `yaml:"apiPaths,omitempty"`
}

// File is the on-disk shape of an agent configuration file.
type File struct {
	Agents []AgentDefinition `yaml:"agents"`
}

// LoadAgents reads and validates agent definitions from a YAML file.
func LoadAgents(path string) ([]AgentDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent config: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse agent config: %w", err)
	}
	if len(f.Agents) == 0 {
		return nil, fmt.Errorf("agent config %s defines no agents", path)
	}

	seen := make(map[string]struct{}, len(f.Agents))
	for i, def := range f.Agents {
		if _, err := did.Parse(def.DID); err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
		if def.Name == "" {
			return nil, fmt.Errorf("agent %d (%s): name is required", i, def.DID)
		}
		if def.DocumentPath == "" || def.KeyPath == "" {
			return nil, fmt.Errorf("agent %d (%s): document and key paths are required", i, def.DID)
		}
		if _, dup := seen[def.DID]; dup {
			return nil, fmt.Errorf("agent %d: duplicate DID %s", i, def.DID)
		}
		seen[def.DID] = struct{}{}
	}
	return f.Agents, nil
}
