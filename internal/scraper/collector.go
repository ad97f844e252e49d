// internal/scraper/collector.go
package scraper

import (
	"sort"
	"strconv"
	"strings"
)

// itemKeyPrefix marks nested per-iteration sub-collectors written by
// foreach. The flattener recognizes these by prefix and numeric suffix.
const itemKeyPrefix = "item_"

// Collector is the per-record scratch map populated by extraction and
// page-info steps and consumed by later steps and placeholders. Keys keep
// insertion order.
type Collector struct {
	keys   []string
	values map[string]interface{}
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{values: make(map[string]interface{})}
}

// Set stores a value, preserving first-insertion key order.
func (c *Collector) Set(key string, value interface{}) {
	if _, exists := c.values[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the value for key and whether it is present.
func (c *Collector) Get(key string) (interface{}, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Len returns the number of entries.
func (c *Collector) Len() int { return len(c.keys) }

// Keys returns the keys in insertion order.
func (c *Collector) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Clone returns a shallow copy: entries are copied, values are shared.
// Used by the open handler to seed a child page's collector with parent
// data.
func (c *Collector) Clone() *Collector {
	out := NewCollector()
	for _, k := range c.keys {
		out.Set(k, c.values[k])
	}
	return out
}

// Merge copies every entry of other into c, overwriting on key collision.
func (c *Collector) Merge(other *Collector) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		c.Set(k, other.values[k])
	}
}

// ItemKeys returns the item_<n> keys in ascending numeric order. Keys with
// a non-numeric suffix are not items.
func (c *Collector) ItemKeys() []string {
	type item struct {
		key string
		n   int
	}
	var items []item
	for _, k := range c.keys {
		if !strings.HasPrefix(k, itemKeyPrefix) {
			continue
		}
		n, err := strconv.Atoi(k[len(itemKeyPrefix):])
		if err != nil {
			continue
		}
		items = append(items, item{key: k, n: n})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].n < items[j].n })
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.key
	}
	return keys
}

// ToMap converts the collector to a plain map, recursively converting
// nested collectors. This is the shape records are emitted in.
func (c *Collector) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(c.keys))
	for _, k := range c.keys {
		out[k] = exportValue(c.values[k])
	}
	return out
}

func exportValue(v interface{}) interface{} {
	switch val := v.(type) {
	case *Collector:
		return val.ToMap()
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = exportValue(e)
		}
		return out
	default:
		return v
	}
}

// Flatten converts a collector holding nested item_<n> sub-collectors
// into an ordered array of those items, excluding empty ones. A collector
// with no item keys flattens to itself as a single record map.
func (c *Collector) Flatten() interface{} {
	itemKeys := c.ItemKeys()
	if len(itemKeys) == 0 {
		return c.ToMap()
	}
	records := make([]interface{}, 0, len(itemKeys))
	for _, k := range itemKeys {
		sub, ok := c.values[k].(*Collector)
		if !ok || sub.Len() == 0 {
			continue
		}
		records = append(records, sub.ToMap())
	}
	return records
}
