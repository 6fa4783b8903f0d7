package normalize

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/recon/internal/config"
)

// Registry holds normalizers by locale name.
type Registry struct {
	normalizers map[string]*Normalizer
}

// NewRegistry compiles every locale into a Normalizer.
func NewRegistry(locales []config.Locale) (*Registry, error) {
	r := &Registry{normalizers: make(map[string]*Normalizer, len(locales))}
	for _, loc := range locales {
		key := strings.ToLower(loc.Name)
		if _, ok := r.normalizers[key]; ok {
			return nil, fmt.Errorf("duplicate locale %q", loc.Name)
		}
		n, err := New(loc)
		if err != nil {
			return nil, err
		}
		r.normalizers[key] = n
	}
	return r, nil
}

// Get returns the normalizer for locale, or nil.
func (r *Registry) Get(locale string) *Normalizer {
	return r.normalizers[strings.ToLower(locale)]
}
