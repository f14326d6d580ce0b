/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package arena

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is the read-only set of personas a user may choose from.
type Catalog struct {
	personas []Persona
	index    map[string]int
}

// catalogFile is the on-disk shape of a persona catalog.
//
// Example:
//
//	personas:
//	  - id: socrates
//	    name: Socrates
//	    description: Ancient Greek philosopher.
//	    avatar: "🏛️"
//	    color: amber
//	    prompt: You are Socrates...
type catalogFile struct {
	Personas []Persona `yaml:"personas"`
}

// DefaultCatalog returns the built-in catalog of eight personas.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultPersonas)
	if err != nil {
		panic("arena: invalid built-in catalog: " + err.Error())
	}
	return c
}

// NewCatalog builds a catalog, rejecting empty or duplicate ids.
func NewCatalog(personas []Persona) (*Catalog, error) {
	if len(personas) == 0 {
		return nil, errors.New("arena: catalog has no personas")
	}

	c := &Catalog{
		personas: make([]Persona, 0, len(personas)),
		index:    make(map[string]int, len(personas)),
	}

	for _, p := range personas {
		if p.ID == "" {
			return nil, errors.New("arena: persona with empty id")
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("arena: duplicate persona id %q", p.ID)
		}
		if p.DisplayName == "" {
			p.DisplayName = p.ID
		}
		p.Kind = KindCatalog

		c.index[p.ID] = len(c.personas)
		c.personas = append(c.personas, p)
	}

	return c, nil
}

// LoadCatalogFile reads a YAML persona catalog from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("arena: open catalog %q: %w", path, err)
	}
	defer f.Close()

	c, err := LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("arena: parse catalog %q: %w", path, err)
	}
	return c, nil
}

// LoadCatalog parses a YAML persona catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var cf catalogFile

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("arena: decode catalog yaml: %w", err)
	}

	return NewCatalog(cf.Personas)
}

// Lookup returns the persona with the given id.
func (c *Catalog) Lookup(id string) (Persona, bool) {
	i, ok := c.index[id]
	if !ok {
		return Persona{}, false
	}
	return c.personas[i], true
}

// All returns the catalog in display order.
func (c *Catalog) All() []Persona {
	out := make([]Persona, len(c.personas))
	copy(out, c.personas)
	return out
}

// AgentNames maps persona ids to agent names. Unknown ids pass through
// unchanged, so agents can still be addressed by a free-form name.
func (c *Catalog) AgentNames(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.Lookup(id); ok {
			out = append(out, p.AgentName())
			continue
		}
		out = append(out, id)
	}
	return out
}
