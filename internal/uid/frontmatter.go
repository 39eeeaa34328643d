// Package uid implements the Note Identity & Snapshot Store (spec.md §4.1):
// reading/assigning the kohl-uid frontmatter key and maintaining
// content-addressed snapshot baselines for three-way merges.
package uid

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/adrg/frontmatter"
)

// ReservedUIDKey is the fixed frontmatter key the system reserves for a
// note's identity (spec.md §3, §6).
const ReservedUIDKey = "kohl-uid"

// Document is a parsed note: an ordered frontmatter plus a body. Key order
// is preserved from disk so re-emission doesn't reshuffle user-owned keys,
// per spec.md §6 ("the system only writes keys it knows about and otherwise
// preserves existing keys in order").
type Document struct {
	Order []string
	Value map[string]any
	Body  []byte
}

// Get returns the raw value for key and whether it was present.
func (d *Document) Get(key string) (any, bool) {
	if d == nil || d.Value == nil {
		return nil, false
	}
	v, ok := d.Value[key]
	return v, ok
}

// Set inserts or updates key, preserving its existing position if present,
// else appending it to the end of Order.
func (d *Document) Set(key string, value any) {
	if d.Value == nil {
		d.Value = map[string]any{}
	}
	if _, exists := d.Value[key]; !exists {
		d.Order = append(d.Order, key)
	}
	d.Value[key] = value
}

// Delete removes key from both Order and Value.
func (d *Document) Delete(key string) {
	if d.Value == nil {
		return
	}
	delete(d.Value, key)
	for i, k := range d.Order {
		if k == key {
			d.Order = append(d.Order[:i], d.Order[i+1:]...)
			break
		}
	}
}

// ParseDocument splits source into an order-preserving frontmatter map and
// the raw Markdown body, mirroring the teacher's
// internal/markdown.ParseFrontMatter but preserving key order instead of
// collapsing into a struct, since spec.md §6 requires the emission layer to
// "preserve existing keys in order".
func ParseDocument(source []byte) (*Document, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(source, "﻿"), []byte("---")) {
		return &Document{Body: source}, nil
	}

	var raw map[string]any
	reader := bytes.NewReader(source)
	body, err := frontmatter.Parse(reader, &raw)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	order := extractKeyOrder(source)
	if raw == nil {
		raw = map[string]any{}
	}
	// Any key frontmatter.Parse found that our hand-rolled order scan missed
	// (defensive: nested/odd YAML) is appended at the end, stable-sorted, so
	// nothing is ever silently dropped from Order.
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		seen[k] = true
	}
	var missing []string
	for k := range raw {
		if !seen[k] {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	order = append(order, missing...)

	return &Document{Order: order, Value: raw, Body: body}, nil
}

// extractKeyOrder does a light line scan of the leading YAML block to
// recover top-level key order; adrg/frontmatter (backed by yaml.v3 into a
// map) does not preserve it.
func extractKeyOrder(source []byte) []string {
	lines := strings.Split(string(source), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return nil
	}
	var order []string
	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "---" {
			break
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			continue // nested/list continuation line
		}
		idx := strings.Index(trimmed, ":")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(trimmed[:idx])
		key = strings.Trim(key, `"'`)
		if key != "" {
			order = append(order, key)
		}
	}
	return order
}

// Encode serializes the document back to frontmatter+body bytes in Order,
// with keys not present in Order appended (stable-sorted) at the end. This
// is the "ordered key-value container for emission" called for by spec.md
// §9's design notes, replacing a bare map[string]unknown.
func Encode(doc *Document) []byte {
	var buf bytes.Buffer
	if len(doc.Order) == 0 && len(doc.Value) == 0 {
		buf.Write(doc.Body)
		return buf.Bytes()
	}

	buf.WriteString("---\n")
	written := make(map[string]bool, len(doc.Order))
	for _, key := range doc.Order {
		value, ok := doc.Value[key]
		if !ok || written[key] {
			continue
		}
		written[key] = true
		writeYAMLField(&buf, key, value)
	}
	var extra []string
	for key := range doc.Value {
		if !written[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		writeYAMLField(&buf, key, doc.Value[key])
	}
	buf.WriteString("---\n\n")
	buf.Write(doc.Body)
	return buf.Bytes()
}

func writeYAMLField(buf *bytes.Buffer, key string, value any) {
	switch v := value.(type) {
	case []string:
		if len(v) == 0 {
			buf.WriteString(key + ": []\n")
			return
		}
		buf.WriteString(key + ":\n")
		for _, item := range v {
			buf.WriteString("  - " + yamlScalar(item) + "\n")
		}
	case []any:
		if len(v) == 0 {
			buf.WriteString(key + ": []\n")
			return
		}
		buf.WriteString(key + ":\n")
		for _, item := range v {
			buf.WriteString("  - " + yamlScalar(fmt.Sprint(item)) + "\n")
		}
	case bool:
		buf.WriteString(key + ": " + strconv.FormatBool(v) + "\n")
	case int:
		buf.WriteString(key + ": " + strconv.Itoa(v) + "\n")
	case nil:
		buf.WriteString(key + ": null\n")
	default:
		buf.WriteString(key + ": " + yamlScalar(fmt.Sprint(v)) + "\n")
	}
}

// yamlScalar quotes a scalar string when it is empty, has leading/trailing
// space, contains any YAML-significant character anywhere in it, or would
// read back as a boolean, null or number; otherwise it is written bare.
func yamlScalar(s string) string {
	needsQuote := s == "" ||
		strings.ContainsAny(s, ":#{}[]&*!|>'\"%@`") ||
		strings.TrimSpace(s) != s ||
		s == "true" || s == "false" || s == "null" ||
		looksNumeric(s)
	if !needsQuote {
		return s
	}
	return strconv.Quote(s)
}

func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
