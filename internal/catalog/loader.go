package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	domainerrors "github.com/tillpoint/tillpoint-server/internal/errors"
)

// Load reads a catalog file. YAML and JSON documents are both accepted; the
// document is walked node by node so key order survives.
//
// Shape:
//
//	Ti:
//	  allowCustom: g
//	  sizes: {"1g": 30, "3.5g": 90}
//	EG:
//	  types:
//	    Classic: {"50g": 9}
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- catalog path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "invalid catalog document")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, domainerrors.Validation("catalog document is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, domainerrors.Validation("catalog root must be a mapping of product names")
	}

	entries := make([]Entry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		entry, err := parseEntry(name, root.Content[i+1])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return New(entries...)
}

func parseEntry(name string, node *yaml.Node) (Entry, error) {
	if node.Kind != yaml.MappingNode {
		return nil, domainerrors.Validationf("catalog entry %q must be a mapping", name)
	}

	var (
		sizesNode, typesNode *yaml.Node
		custom               Unit
	)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "sizes":
			sizesNode = val
		case "types":
			typesNode = val
		case "allowCustom":
			custom = Unit(val.Value)
		default:
			return nil, domainerrors.Validationf("catalog entry %q: unknown field %q", name, key)
		}
	}

	switch {
	case sizesNode != nil && typesNode != nil:
		return nil, domainerrors.Validationf("catalog entry %q has both sizes and types", name)
	case sizesNode != nil:
		sizes, err := parseSizes(name, sizesNode)
		if err != nil {
			return nil, err
		}
		return NewSizesEntry(name, custom, sizes...), nil
	case typesNode != nil:
		if typesNode.Kind != yaml.MappingNode {
			return nil, domainerrors.Validationf("catalog entry %q: types must be a mapping", name)
		}
		types := make([]TypeSizes, 0, len(typesNode.Content)/2)
		for i := 0; i+1 < len(typesNode.Content); i += 2 {
			typeName := typesNode.Content[i].Value
			sizes, err := parseSizes(name+" > "+typeName, typesNode.Content[i+1])
			if err != nil {
				return nil, err
			}
			types = append(types, TypeSizes{Name: typeName, Sizes: sizes})
		}
		return NewTypedEntry(name, custom, types...), nil
	default:
		return nil, domainerrors.Validationf("catalog entry %q needs sizes or types", name)
	}
}

func parseSizes(owner string, node *yaml.Node) (Sizes, error) {
	if node.Kind != yaml.MappingNode {
		return nil, domainerrors.Validationf("%s: sizes must be a mapping of label to price", owner)
	}
	sizes := make(Sizes, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		label := node.Content[i].Value
		var price float64
		if err := node.Content[i+1].Decode(&price); err != nil {
			return nil, domainerrors.Validationf("%s: price for %q is not a number", owner, label)
		}
		if price < 0 {
			return nil, domainerrors.Validationf("%s: price for %q is negative", owner, label)
		}
		sizes = append(sizes, SizePrice{Label: label, Price: price})
	}
	return sizes, nil
}
