package scraper

import (
	"fmt"
	"sort"

	"BookStoreScraper/pkg/config"
	"BookStoreScraper/utils"
)

// FromConfig builds a store from its YAML description. Stores without selectors read schema.org microdata.
func FromConfig(sc config.StoreConfig, scraperConf config.ScraperConfig, opts ...Option) (*GenericStore, error) {
	var extractor Extractor = Microdata{}
	if !sc.Selectors.Empty() {
		extractor = NewSelectors(sc.Selectors)
	}
	return New(Config{
		Name:              sc.Name,
		URL:               sc.URL,
		SearchURL:         sc.SearchURL,
		ExternalOnly:      sc.ExternalOnly,
		WordsDRMLocked:    sc.WordsDRMLocked,
		WordsDRMUnlocked:  sc.WordsDRMUnlocked,
		UserAgent:         scraperConf.UserAgent,
		RequestsPerSecond: sc.RequestsPerSecond,
	}, extractor, opts...)
}

// Registry holds the configured stores by name. Lookups also accept the store's slug.
type Registry struct {
	stores map[string]*GenericStore
	slugs  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[string]*GenericStore),
		slugs:  make(map[string]string),
	}
}

func (r *Registry) Register(s *GenericStore) error {
	if _, ok := r.stores[s.Name()]; ok {
		return fmt.Errorf("store %q already registered", s.Name())
	}
	r.stores[s.Name()] = s
	r.slugs[utils.CreateSlug(s.Name())] = s.Name()
	return nil
}

// Get finds a store by name or slug ("Legimi PL" or "legimi-pl").
func (r *Registry) Get(name string) (*GenericStore, bool) {
	if s, ok := r.stores[name]; ok {
		return s, true
	}
	if full, ok := r.slugs[utils.CreateSlug(name)]; ok {
		return r.stores[full], true
	}
	return nil, false
}

// Names returns the registered store names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadRegistry builds every store in cfg. optsFor supplies per-store options such as a rendering browser.
func LoadRegistry(cfg *config.Config, optsFor func(config.StoreConfig) []Option) (*Registry, error) {
	reg := NewRegistry()
	for _, sc := range cfg.Stores {
		var opts []Option
		if optsFor != nil {
			opts = optsFor(sc)
		}
		s, err := FromConfig(sc, cfg.Scraper, opts...)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(s); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
