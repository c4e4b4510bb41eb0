package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Category is one of the fixed catalog partitions.
type Category string

const (
	CategoryUsers Category = "users"
	CategoryAdmin Category = "admin"
)

// Categories lists the recognised categories in persisted order.
var Categories = []Category{CategoryUsers, CategoryAdmin}

// ParseCategory returns the Category named s and whether it is recognised.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Service is one catalog entry: a titled link with an icon.
type Service struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Image string `json:"image"`

	// extra holds fields other than title, url and image as compact
	// `"key":value` pairs, keys sorted. A string keeps Service comparable.
	extra string
}

// Extra returns the raw JSON of fields the registry does not interpret.
func (s Service) Extra() map[string]json.RawMessage {
	if s.extra == "" {
		return nil
	}
	var m map[string]json.RawMessage
	_ = json.Unmarshal([]byte("{"+s.extra+"}"), &m)
	return m
}

// MarshalJSON writes title, url and image, then any carried fields.
func (s Service) MarshalJSON() ([]byte, error) {
	type plain struct {
		Title string `json:"title"`
		URL   string `json:"url"`
		Image string `json:"image"`
	}
	b, err := json.Marshal(plain{Title: s.Title, URL: s.URL, Image: s.Image})
	if err != nil || s.extra == "" {
		return b, err
	}
	out := make([]byte, 0, len(b)+len(s.extra)+1)
	out = append(out, b[:len(b)-1]...)
	out = append(out, ',')
	out = append(out, s.extra...)
	return append(out, '}'), nil
}

// UnmarshalJSON reads an entry object, keeping unknown fields.
func (s *Service) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("catalog entry is not an object")
	}
	*s = Service{}
	for name, dst := range map[string]*string{"title": &s.Title, "url": &s.URL, "image": &s.Image} {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		delete(fields, name)
		if string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("entry field %s: %w", name, err)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(k)
		buf.Write(key)
		buf.WriteByte(':')
		if err := json.Compact(&buf, fields[k]); err != nil {
			return fmt.Errorf("entry field %s: %w", k, err)
		}
	}
	s.extra = buf.String()
	return nil
}

// Document is the persisted catalog: category name to ordered entries.
// Top-level keys outside Categories are kept verbatim in extra and
// survive a load/replace round trip whatever their value.
type Document struct {
	Categories map[string][]Service

	extra map[string]json.RawMessage
}

// NewDocument returns a document with every recognised category present and empty.
func NewDocument() *Document {
	d := &Document{Categories: make(map[string][]Service, len(Categories))}
	d.Normalize()
	return d
}

// Normalize makes sure every recognised category exists with a non-nil slice.
func (d *Document) Normalize() {
	if d.Categories == nil {
		d.Categories = make(map[string][]Service, len(Categories))
	}
	for _, c := range Categories {
		if d.Categories[string(c)] == nil {
			d.Categories[string(c)] = []Service{}
		}
	}
}

// Entries returns the entries of c.
func (d *Document) Entries(c Category) []Service {
	return d.Categories[string(c)]
}

// SetEntries replaces the entries of c.
func (d *Document) SetEntries(c Category, entries []Service) {
	if entries == nil {
		entries = []Service{}
	}
	d.Categories[string(c)] = entries
}

// Find returns the index of the entry titled title in c, or -1.
func (d *Document) Find(c Category, title string) int {
	for i, s := range d.Categories[string(c)] {
		if s.Title == title {
			return i
		}
	}
	return -1
}

// Images returns every image reference in the document. Stray keys that
// hold entry arrays count too.
func (d *Document) Images() map[string]struct{} {
	refs := make(map[string]struct{})
	add := func(entries []Service) {
		for _, s := range entries {
			if s.Image != "" {
				refs[s.Image] = struct{}{}
			}
		}
	}
	for _, entries := range d.Categories {
		add(entries)
	}
	for _, raw := range d.extra {
		var entries []Service
		if json.Unmarshal(raw, &entries) == nil {
			add(entries)
		}
	}
	return refs
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	out := &Document{Categories: make(map[string][]Service, len(d.Categories))}
	for k, v := range d.Categories {
		cp := make([]Service, len(v))
		copy(cp, v)
		out.Categories[k] = cp
	}
	if d.extra != nil {
		out.extra = make(map[string]json.RawMessage, len(d.extra))
		for k, v := range d.extra {
			out.extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// MarshalJSON writes categories in a stable order: users, admin, then stray keys sorted.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	write := func(k string, val []byte) {
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		key, _ := json.Marshal(k)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	for _, c := range Categories {
		entries, ok := d.Categories[string(c)]
		if !ok {
			continue
		}
		if entries == nil {
			entries = []Service{}
		}
		val, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("marshal category %s: %w", c, err)
		}
		write(string(c), val)
	}
	extra := make([]string, 0, len(d.extra))
	for k := range d.extra {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		write(k, d.extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the category map and normalises it. Recognised
// categories must hold entry arrays; any other key is kept as is.
func (d *Document) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("catalog document is not an object")
	}
	d.Categories = make(map[string][]Service, len(Categories))
	d.extra = nil
	for k, raw := range m {
		if _, ok := ParseCategory(k); !ok {
			if d.extra == nil {
				d.extra = make(map[string]json.RawMessage)
			}
			d.extra[k] = raw
			continue
		}
		var entries []Service
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("category %s: %w", k, err)
		}
		d.Categories[k] = entries
	}
	d.Normalize()
	return nil
}
