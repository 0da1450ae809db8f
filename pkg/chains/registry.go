// Package chains maps chain ids to display names and explorer links used in
// notification cards.
package chains

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Chain describes one network.
type Chain struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Explorer string `yaml:"explorer"` // address page template, %s is the address
}

// File is the YAML layout accepted by LoadFile.
type File struct {
	Chains []Chain `yaml:"chains"`
}

var builtin = []Chain{
	{ID: "1", Name: "Ethereum", Explorer: "https://etherscan.io/address/%s"},
	{ID: "10", Name: "Optimism", Explorer: "https://optimistic.etherscan.io/address/%s"},
	{ID: "56", Name: "BSC", Explorer: "https://bscscan.com/address/%s"},
	{ID: "137", Name: "Polygon", Explorer: "https://polygonscan.com/address/%s"},
	{ID: "8453", Name: "Base", Explorer: "https://basescan.org/address/%s"},
	{ID: "42161", Name: "Arbitrum", Explorer: "https://arbiscan.io/address/%s"},
}

// Registry holds known chains by id.
type Registry struct {
	mu     sync.RWMutex
	chains map[string]Chain
}

// NewRegistry returns a registry seeded with the built-in chains.
func NewRegistry() *Registry {
	r := &Registry{chains: make(map[string]Chain, len(builtin))}
	for _, c := range builtin {
		r.chains[c.ID] = c
	}
	return r
}

// Register adds or replaces a chain.
func (r *Registry) Register(c Chain) error {
	id := strings.TrimSpace(c.ID)
	if id == "" {
		return fmt.Errorf("chain has no id")
	}
	c.ID = id

	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[id] = c
	return nil
}

// Get returns the chain with the given id.
func (r *Registry) Get(id string) (Chain, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chains[strings.TrimSpace(id)]
	return c, ok
}

// Name returns a display name, falling back to the raw id.
func (r *Registry) Name(id string) string {
	if c, ok := r.Get(id); ok && c.Name != "" {
		return c.Name
	}
	return "chain " + id
}

// PoolURL returns an explorer link for address, or "" when unknown.
func (r *Registry) PoolURL(id, address string) string {
	c, ok := r.Get(id)
	if !ok || c.Explorer == "" || address == "" {
		return ""
	}
	return fmt.Sprintf(c.Explorer, address)
}

// LoadFile merges chains from a YAML file into the registry.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read chains file %s: %w", path, err)
	}
	return r.LoadBytes(data)
}

// LoadBytes merges chains from raw YAML.
func (r *Registry) LoadBytes(data []byte) error {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse chains: %w", err)
	}
	for i, c := range f.Chains {
		if err := r.Register(c); err != nil {
			return fmt.Errorf("chain entry %d: %w", i, err)
		}
	}
	return nil
}
