package genre

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadTaxonomy reads a taxonomy file. The format is picked from the extension:
// .yaml/.yml or .toml. In both formats the top level maps a supergenre key to
// either a list of genre tags or a table with "display" and "genres".
//
//	urban: [hip hop, rap]
//	alt_rock:
//	  display: Alt Rock
//	  genres: [rock, indie rock]
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".toml":
		return ParseTOML(data)
	default:
		return nil, fmt.Errorf("taxonomy %s: unsupported format (want .yaml, .yml or .toml)", path)
	}
}

type taxonomyEntry struct {
	Display string   `yaml:"display" toml:"display"`
	Genres  []string `yaml:"genres" toml:"genres"`
}

// ParseYAML parses a YAML taxonomy, keeping the declared key order.
func ParseYAML(data []byte) (*Taxonomy, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, ErrEmptyTaxonomy
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing taxonomy: line %d: expected a mapping of supergenres", root.Line)
	}

	var groups []Supergenre
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		group := Supergenre{Key: key.Value}
		switch value.Kind {
		case yaml.SequenceNode:
			if err := value.Decode(&group.Tags); err != nil {
				return nil, fmt.Errorf("parsing taxonomy: supergenre %q: %w", key.Value, err)
			}
		case yaml.MappingNode:
			var entry taxonomyEntry
			if err := value.Decode(&entry); err != nil {
				return nil, fmt.Errorf("parsing taxonomy: supergenre %q: %w", key.Value, err)
			}
			group.Display = entry.Display
			group.Tags = entry.Genres
		default:
			return nil, fmt.Errorf("parsing taxonomy: line %d: supergenre %q must be a list or a table", value.Line, key.Value)
		}
		groups = append(groups, group)
	}

	return NewTaxonomy(groups)
}

// ParseTOML parses a TOML taxonomy, keeping the declared key order.
func ParseTOML(data []byte) (*Taxonomy, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}

	var groups []Supergenre
	for _, key := range md.Keys() {
		if len(key) != 1 {
			continue
		}
		name := key[0]

		group := Supergenre{Key: name}
		switch v := raw[name].(type) {
		case []any:
			tags, err := stringList(v)
			if err != nil {
				return nil, fmt.Errorf("parsing taxonomy: supergenre %q: %w", name, err)
			}
			group.Tags = tags
		case map[string]any:
			if display, ok := v["display"].(string); ok {
				group.Display = display
			}
			genres, _ := v["genres"].([]any)
			tags, err := stringList(genres)
			if err != nil {
				return nil, fmt.Errorf("parsing taxonomy: supergenre %q: %w", name, err)
			}
			group.Tags = tags
		default:
			return nil, fmt.Errorf("parsing taxonomy: supergenre %q must be an array or a table", name)
		}
		groups = append(groups, group)
	}

	return NewTaxonomy(groups)
}

func stringList(values []any) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("genre %v is not a string", v)
		}
		out = append(out, s)
	}
	return out, nil
}
