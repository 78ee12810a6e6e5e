// Package meta holds the composition input formats and turns them into enriched,
// tier-ranked compositions ready for resolution and layout.
package meta

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned for input that cannot be decoded or violates the schema
var ErrInvalidDocument = errors.New("invalid document")

// Document is the structured meta document: composition records plus per-champion data
type Document struct {
	Compositions []CompositionRecord     `yaml:"compositions"`
	Champions    map[string]ChampionInfo `yaml:"champions"`
}

// CompositionRecord is one composition as written in the document
type CompositionRecord struct {
	Tier       string        `yaml:"tier"`
	Title      string        `yaml:"title"`
	EarlyPicks string        `yaml:"early_picks"`
	Carries    string        `yaml:"carries"`
	Synergies  TextList      `yaml:"synergies"`
	AvgPlace   *float64      `yaml:"avg_place"`
	Champions  []ChampionRef `yaml:"champions"`
}

// ChampionRef names a champion and its star target. It decodes from either a plain
// name or a {name, stars} mapping.
type ChampionRef struct {
	Name  string `yaml:"name"`
	Stars int    `yaml:"stars"`
}

// UnmarshalYAML accepts "Ahri" as well as {name: Ahri, stars: 2}
func (c *ChampionRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		c.Name = strings.TrimSpace(node.Value)
		c.Stars = 0
		return nil
	case yaml.MappingNode:
		type plain ChampionRef
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*c = ChampionRef(p)
		c.Name = strings.TrimSpace(c.Name)
		return nil
	default:
		return fmt.Errorf("line %d: champion must be a name or a mapping", node.Line)
	}
}

// ChampionInfo is the per-champion data shared by every composition
type ChampionInfo struct {
	Cost   int      `yaml:"cost"`
	Traits []string `yaml:"traits"`
	Items  []string `yaml:"items"`
}

// TextList decodes from a sequence of strings or from a single delimited string
type TextList []string

// UnmarshalYAML accepts ["A", "B"] as well as "A / B" or "A, B"
func (l *TextList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = ParseList(node.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			if it = strings.TrimSpace(it); it != "" {
				out = append(out, it)
			}
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a list or a string", node.Line)
	}
}

// ParseList splits free text into names: on "/" when present, otherwise on ","
func ParseList(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	for _, sep := range []string{"/", ","} {
		if strings.Contains(text, sep) {
			var out []string
			for _, part := range strings.Split(text, sep) {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			return out
		}
	}
	return []string{text}
}

// DecodeDocument reads a YAML document from r
func DecodeDocument(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadDocument reads a YAML document from path
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()
	return DecodeDocument(f)
}

func (d *Document) validate() error {
	for i, c := range d.Compositions {
		for j, ch := range c.Champions {
			if ch.Name == "" {
				return fmt.Errorf("%w: composition %d (%q) champion %d has no name", ErrInvalidDocument, i+1, c.Title, j+1)
			}
		}
	}
	for name, info := range d.Champions {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: champion entry with empty name", ErrInvalidDocument)
		}
		if info.Cost < 0 || info.Cost > 5 {
			return fmt.Errorf("%w: champion %q has cost %d, want 1..5", ErrInvalidDocument, name, info.Cost)
		}
	}
	return nil
}
