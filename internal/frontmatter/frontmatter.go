// Package frontmatter reads and writes the YAML header block of markdown
// documents: a first line of exactly "---", key/value pairs, and a closing
// "---" line.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ErrMalformed is returned when a frontmatter block exists but is not a YAML
// mapping.
var ErrMalformed = errors.New("frontmatter is not a YAML mapping")

// header is a located frontmatter block.
type header struct {
	yaml string // text between the delimiter lines
	rest string // everything after the closing delimiter line
	// closingNewline is false when the closing delimiter ends the document
	// without a trailing newline.
	closingNewline bool
}

// split locates the frontmatter block. Delimiter lines may carry a trailing
// carriage return.
func split(content string) (header, bool) {
	first, after, ok := strings.Cut(content, "\n")
	if !ok || strings.TrimSuffix(first, "\r") != delimiter {
		return header{}, false
	}

	offset := 0
	for {
		line, next, more := strings.Cut(after[offset:], "\n")
		if strings.TrimSuffix(line, "\r") == delimiter {
			h := header{yaml: after[:offset], closingNewline: more}
			if more {
				h.rest = next
			}
			return h, true
		}
		if !more {
			return header{}, false
		}
		offset += len(line) + 1
	}
}

// mapping decodes the header into its top-level mapping node.
func (h header) mapping() (*yaml.Node, bool) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(h.yaml), &doc); err != nil {
		return nil, false
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, false
	}
	m := doc.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil, false
	}
	return m, true
}

// GetValue returns the string form of key's value in the document's
// frontmatter. Scalars (strings, numbers, bools) are returned as written;
// sequences and mappings are returned re-encoded as YAML.
// Values containing colons, such as URLs, are returned whole.
func GetValue(content, key string) (string, bool) {
	h, ok := split(content)
	if !ok {
		return "", false
	}
	m, ok := h.mapping()
	if !ok {
		return "", false
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value != key {
			continue
		}
		v := m.Content[i+1]
		if v.Kind == yaml.AliasNode && v.Alias != nil {
			v = v.Alias
		}
		if v.Kind == yaml.ScalarNode {
			return v.Value, true
		}
		out, err := yaml.Marshal(v)
		if err != nil {
			return "", false
		}
		return strings.TrimSpace(string(out)), true
	}
	return "", false
}

// SetValue sets key to a string value, creating the frontmatter block if the
// document has none. Existing keys keep their order and comments; the body
// after the block is preserved byte for byte. A block that does not parse is
// never rewritten: content is returned unchanged with ErrMalformed.
func SetValue(content, key, value string) (string, error) {
	h, found := split(content)

	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if found && strings.TrimSpace(h.yaml) != "" {
		parsed, ok := h.mapping()
		if !ok {
			return content, ErrMalformed
		}
		m = parsed
	}

	val := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	replaced := false
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			val.LineComment = m.Content[i+1].LineComment
			m.Content[i+1] = val
			replaced = true
			break
		}
	}
	if !replaced {
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			val,
		)
	}

	serialized, err := encode(m)
	if err != nil {
		return content, err
	}

	if !found {
		return delimiter + "\n" + serialized + delimiter + "\n\n" + content, nil
	}
	out := delimiter + "\n" + serialized + delimiter
	if h.closingNewline {
		out += "\n" + h.rest
	}
	return out, nil
}

func encode(m *yaml.Node) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	return buf.String(), nil
}

// ListMarkdown returns the .md files directly inside dir, sorted by name.
func ListMarkdown(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".md" {
			continue
		}
		p := filepath.Join(dir, e.Name())
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, p)
	}
	return files, nil
}
