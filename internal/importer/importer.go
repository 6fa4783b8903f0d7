package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/recon/internal/model"
)

// ErrDuplicateLabel is wrapped by ConfigurationError when a label is reused.
var ErrDuplicateLabel = errors.New("duplicate source label")

// ConfigurationError rejects one AddBatch call. The collection is unchanged.
type ConfigurationError struct {
	Label string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("source %q: %v", e.Label, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Collection holds normalized batches by source label in insertion order.
// It is append-only while importing and must not be modified once
// reconciliation starts; it does no locking of its own.
type Collection struct {
	order   []string
	batches map[string]model.Batch
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{batches: make(map[string]model.Batch)}
}

// AddBatch binds records to label. Each record gets SourceLabel set; the
// caller's slice is not modified.
func (c *Collection) AddBatch(label string, records []model.Transaction) error {
	if label == "" {
		return &ConfigurationError{Label: label, Err: errors.New("empty source label")}
	}
	if _, ok := c.batches[label]; ok {
		return &ConfigurationError{Label: label, Err: ErrDuplicateLabel}
	}

	labeled := make([]model.Transaction, len(records))
	for i, r := range records {
		r.SourceLabel = label
		labeled[i] = r
	}
	c.batches[label] = model.Batch{Label: label, Records: labeled}
	c.order = append(c.order, label)
	return nil
}

// Get returns the batch for label.
func (c *Collection) Get(label string) (model.Batch, bool) {
	b, ok := c.batches[label]
	return b, ok
}

// Labels returns source labels in insertion order.
func (c *Collection) Labels() []string {
	return append([]string(nil), c.order...)
}

// Batches returns all batches in insertion order.
func (c *Collection) Batches() []model.Batch {
	out := make([]model.Batch, len(c.order))
	for i, l := range c.order {
		out[i] = c.batches[l]
	}
	return out
}

// Records returns every record, batches in insertion order.
func (c *Collection) Records() []model.Transaction {
	var out []model.Transaction
	for _, l := range c.order {
		out = append(out, c.batches[l].Records...)
	}
	return out
}

// Len returns the number of batches.
func (c *Collection) Len() int { return len(c.order) }

// LabelFor derives a source label from a file path: its base name without
// the extension. "import/august.csv" -> "august"
func LabelFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
