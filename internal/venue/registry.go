// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package venue

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Provider describes a registered venue.
type Provider struct {
	Name string

	// BaseURL is the site root the adapter scrapes.
	BaseURL string

	New func(baseURL string, f *Fetcher) Adapter
}

var (
	regMu    sync.RWMutex
	registry = map[string]Provider{}
)

// Register adds p to the registry.
func Register(p Provider) error {
	if p.Name == "" {
		return fmt.Errorf("provider name must not be empty")
	}
	if p.New == nil || p.BaseURL == "" {
		return fmt.Errorf("provider %s is incomplete", p.Name)
	}

	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := registry[p.Name]; exists {
		return fmt.Errorf("provider %s already registered", p.Name)
	}
	registry[p.Name] = p
	return nil
}

// MustRegister is Register that panics on error; for use from init.
func MustRegister(p Provider) {
	if err := Register(p); err != nil {
		panic(err)
	}
}

// Lookup returns the provider registered under name.
func Lookup(name string) (Provider, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	p, ok := registry[strings.ToLower(name)]
	return p, ok
}

// Names lists registered providers in sorted order.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Open builds the adapter for name. A name that is an http(s) URL is
// treated as the root of a site using the virtual-conference layout.
func Open(name string, f *Fetcher) (Adapter, error) {
	if p, ok := Lookup(name); ok {
		return p.New(p.BaseURL, f), nil
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return NewVirtual(name, strings.TrimRight(name, "/"), f), nil
	}
	return nil, fmt.Errorf("unknown venue %q (known: %s)", name, strings.Join(Names(), ", "))
}

func init() {
	for _, site := range []struct{ name, base string }{
		{"neurips", "https://neurips.cc"},
		{"iclr", "https://iclr.cc"},
		{"icml", "https://icml.cc"},
	} {
		name := site.name
		MustRegister(Provider{
			Name:    name,
			BaseURL: site.base,
			New: func(baseURL string, f *Fetcher) Adapter {
				return NewVirtual(name, baseURL, f)
			},
		})
	}
	MustRegister(Provider{
		Name:    "cvpr",
		BaseURL: "https://papers.cool",
		New: func(baseURL string, f *Fetcher) Adapter {
			return NewPapersCool("cvpr", "CVPR", baseURL, f)
		},
	})
}
