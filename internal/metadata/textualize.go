package metadata

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"fairsearch/pkg/types"
)

// Textualizer converts a metadata record plus companion text into one
// normalized searchable-text blob. The output is deterministic for a
// given record so repeated indexing of an unchanged file hits the
// embedding cache.
type Textualizer struct{}

// NewTextualizer creates a Textualizer.
func NewTextualizer() *Textualizer {
	return &Textualizer{}
}

// SearchableText renders the record as a flat text blob. Field order is
// fixed; map-backed fields are emitted in sorted key order.
func (t *Textualizer) SearchableText(rec *types.Record) string {
	var parts []string
	add := func(s string) {
		if s = CleanText(s); s != "" {
			parts = append(parts, s)
		}
	}

	if rec.Filename != "" {
		stem := strings.TrimSuffix(rec.Filename, filepath.Ext(rec.Filename))
		add(strings.ReplaceAll(stem, "_", " "))
	}
	if rec.Format != "" {
		add("Format: " + string(rec.Format))
	}

	add(rec.Title)
	add(rec.Comment)
	add(rec.Institution)
	add(rec.Source)

	if len(rec.Variables) > 0 {
		names := sortedKeys(rec.Variables)
		add("Variables: " + strings.Join(names, ", "))
		for _, name := range names {
			attrs := rec.Variables[name].Attributes
			if long := attrs["long_name"]; long != "" {
				add(name + ": " + long)
			}
			if std := attrs["standard_name"]; std != "" {
				add(name + ": " + std)
			}
		}
	}
	if len(rec.VariableHints) > 0 {
		add("Variables: " + strings.Join(rec.VariableHints, ", "))
	}

	if len(rec.Dimensions) > 0 {
		var dims []string
		for _, name := range sortedKeys(rec.Dimensions) {
			dims = append(dims, fmt.Sprintf("%s=%d", name, rec.Dimensions[name]))
		}
		add("Dimensions: " + strings.Join(dims, ", "))
	}

	for _, key := range sortedKeys(rec.GlobalAttributes) {
		// history is verbose provenance noise; everything else helps recall
		if strings.EqualFold(key, "history") {
			continue
		}
		add(key + ": " + rec.GlobalAttributes[key])
	}

	if rec.DateFromFilename != "" {
		add("Date: " + rec.DateFromFilename)
	}
	if rec.Version != "" {
		add("Version: " + rec.Version)
	}

	return strings.Join(parts, " ")
}

// Combine joins base metadata text with companion text into the final
// blob handed to the embedder.
func (t *Textualizer) Combine(baseText, companionText string) string {
	if companionText == "" {
		return baseText
	}
	return baseText + " " + companionText
}

// CleanText normalizes text for embedding: collapses whitespace and
// strips NUL bytes.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\x00", " ")
	return strings.Join(strings.Fields(text), " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
