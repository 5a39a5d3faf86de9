// Package resfile implements reading and writing of ARB-like localization
// resource files.
//
// A resource file is a flat JSON object:
//
//   - "@@locale" holds the BCP-47 language code of the document (e.g. "en").
//   - Keys starting with "@" (other than "@@locale") are metadata entries
//     (e.g. "@greeting") and are preserved verbatim — never translated.
//   - Entries with a string value are translatable; entries with any other
//     value type (objects, numbers, booleans) are passed through unchanged.
//
// Round-trip fidelity: key order from the source document is preserved on
// output, and non-translatable values are re-emitted from their original
// JSON bytes.
package resfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocaleKey is the reserved key holding the document's language code.
const LocaleKey = "@@locale"

// ---------------------------------------------------------------------------
// Document model
// ---------------------------------------------------------------------------

// entry is a single key in the resource file.
type entry struct {
	key      string
	value    string // decoded string value (translatable entries only)
	isString bool   // true when the raw value is a JSON string
	raw      json.RawMessage
}

// translatable reports whether this entry's value may be sent for
// translation: string-valued and not a metadata/locale key.
func (e *entry) translatable() bool {
	return e.isString && !strings.HasPrefix(e.key, "@")
}

// Document represents a parsed resource file.
type Document struct {
	// locale is the value of @@locale ("" when absent).
	locale string
	// entries stores all keys in document order.
	entries []entry
	// index maps key → index in entries.
	index map[string]int
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a resource file from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

// Parse parses resource file content from a byte slice. Key order is
// preserved by decoding with json.Decoder token streaming.
func Parse(data []byte) (*Document, error) {
	d := &Document{index: make(map[string]int)}

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing resource file: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing resource file: expected '{', got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("parsing resource file: expected string key, got %T", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parsing value for %q: %w", key, err)
		}

		e := entry{key: key, raw: raw}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			e.isString = true
			e.value = s
		}

		if key == LocaleKey && e.isString {
			d.locale = e.value
		}

		d.index[key] = len(d.entries)
		d.entries = append(d.entries, e)
	}

	return d, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Locale returns the @@locale value, or "" when the document has none.
func (d *Document) Locale() string { return d.locale }

// Len returns the total number of entries, including metadata.
func (d *Document) Len() int { return len(d.entries) }

// Get returns the string value for a translatable key.
func (d *Document) Get(key string) (string, bool) {
	if idx, ok := d.index[key]; ok && d.entries[idx].translatable() {
		return d.entries[idx].value, true
	}
	return "", false
}

// Translatable returns the index-aligned key and value sequences of all
// translatable entries, in document order: values[i] is the string stored
// under keys[i]. The pair is derived fresh on every call and never aliases
// the document's internal state.
func (d *Document) Translatable() (keys, values []string) {
	for _, e := range d.entries {
		if e.translatable() {
			keys = append(keys, e.key)
			values = append(values, e.value)
		}
	}
	return keys, values
}

// Stats returns (translatable, metadata) entry counts.
func (d *Document) Stats() (translatable, metadata int) {
	for _, e := range d.entries {
		if e.translatable() {
			translatable++
		} else {
			metadata++
		}
	}
	return translatable, metadata
}

// ---------------------------------------------------------------------------
// Rebuild (derive a translated document)
// ---------------------------------------------------------------------------

// Rebuild produces a new Document for targetLang: a copy of d with
// translated[i] stored under keys[i] and the @@locale entry set to
// targetLang. The receiver is never modified, so one parsed source can be
// rebuilt for any number of target languages independently.
//
// The locale key is always forced to targetLang, even if it appears in
// keys; locale tags are never machine-translated. A source without a
// @@locale entry gains one at the end of the document.
func (d *Document) Rebuild(keys, translated []string, targetLang string) (*Document, error) {
	if len(keys) != len(translated) {
		return nil, fmt.Errorf("rebuild: %d keys but %d translations", len(keys), len(translated))
	}

	out := &Document{
		locale:  targetLang,
		entries: make([]entry, len(d.entries)),
		index:   make(map[string]int, len(d.entries)),
	}
	for i, e := range d.entries {
		out.entries[i] = e
		out.index[e.key] = i
	}

	for i, key := range keys {
		if key == LocaleKey {
			continue
		}
		idx, ok := out.index[key]
		if !ok || !out.entries[idx].translatable() {
			return nil, fmt.Errorf("rebuild: key %q is not a translatable entry", key)
		}
		raw, _ := json.Marshal(translated[i])
		out.entries[idx].value = translated[i]
		out.entries[idx].raw = raw
	}

	localeRaw, _ := json.Marshal(targetLang)
	if idx, ok := out.index[LocaleKey]; ok {
		out.entries[idx].value = targetLang
		out.entries[idx].isString = true
		out.entries[idx].raw = localeRaw
	} else {
		out.index[LocaleKey] = len(out.entries)
		out.entries = append(out.entries, entry{
			key:      LocaleKey,
			value:    targetLang,
			isString: true,
			raw:      localeRaw,
		})
	}

	return out, nil
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Marshal serialises the document to JSON with 2-space indentation,
// preserving source key order.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")

	for i, e := range d.entries {
		if i > 0 {
			buf.WriteString(",\n")
		}
		keyBytes, _ := json.Marshal(e.key)
		buf.WriteString("  ")
		buf.Write(keyBytes)
		buf.WriteString(": ")
		if e.isString {
			raw, _ := json.Marshal(e.value)
			buf.Write(raw)
		} else {
			// Pretty-print nested values (metadata objects).
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, e.raw, "  ", "  "); err != nil {
				buf.Write(e.raw)
			} else {
				buf.Write(pretty.Bytes())
			}
		}
	}

	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

// WriteFile serialises and writes the document to path.
func (d *Document) WriteFile(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
