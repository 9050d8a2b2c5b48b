package vault

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/desertthunder/notefm/internal/models"
)

const frontmatterDelim = "---"

// splitDocument separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. A document without frontmatter, or with YAML that
// does not parse, is all body.
func splitDocument(data []byte) (*models.Frontmatter, string) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(frontmatterDelim)) {
		return models.NewFrontmatter(), string(data)
	}

	rest := trimmed[len(frontmatterDelim):]
	idx := bytes.Index(rest, []byte("\n"+frontmatterDelim))
	if idx < 0 {
		return models.NewFrontmatter(), string(data)
	}

	fm, err := decodeFrontmatter(rest[:idx])
	if err != nil {
		return models.NewFrontmatter(), string(data)
	}

	body := rest[idx+1+len(frontmatterDelim):]
	return fm, strings.TrimLeft(string(body), "\n\r")
}

// decodeFrontmatter parses a YAML block into an ordered mapping. The yaml
// node API is used instead of map unmarshalling because maps lose document
// order, and frontmatter must round-trip with its keys where the user (or a
// previous write) left them.
func decodeFrontmatter(block []byte) (*models.Frontmatter, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, err
	}

	fm := models.NewFrontmatter()
	if len(doc.Content) == 0 {
		return fm, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("frontmatter root is not a mapping")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		value, err := decodeValue(root.Content[i+1])
		if err != nil {
			return nil, err
		}
		fm.Set(key.Value, value)
	}

	return fm, nil
}

func decodeValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!bool" {
			var b bool
			if err := node.Decode(&b); err != nil {
				return nil, err
			}
			return b, nil
		}
		return node.Value, nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			items = append(items, item.Value)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unsupported frontmatter value on line %d", node.Line)
	}
}

// encodeDocument renders frontmatter and body back into file content.
// An empty frontmatter produces no delimiter block at all.
func encodeDocument(fm *models.Frontmatter, body string) ([]byte, error) {
	if fm == nil || fm.Len() == 0 {
		return []byte(body), nil
	}

	block, err := encodeFrontmatter(fm)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelim + "\n")
	buf.Write(block)
	buf.WriteString(frontmatterDelim + "\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

func encodeFrontmatter(fm *models.Frontmatter) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range fm.Keys() {
		value, _ := fm.Get(key)

		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
		valueNode, err := encodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("frontmatter key %q: %w", key, err)
		}
		root.Content = append(root.Content, keyNode, valueNode)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(root); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(value any) (*yaml.Node, error) {
	node := &yaml.Node{}
	switch v := value.(type) {
	case string:
		node.Kind = yaml.ScalarNode
		node.Value = v
		// Wikilinks start with [[, which YAML would read as a flow
		// sequence, so string values that need it get quoted.
		if needsQuoting(v) {
			node.Style = yaml.DoubleQuotedStyle
		}
	case bool:
		if err := node.Encode(v); err != nil {
			return nil, err
		}
	case []string:
		node.Kind = yaml.SequenceNode
		for _, item := range v {
			itemNode := &yaml.Node{Kind: yaml.ScalarNode, Value: item}
			if needsQuoting(item) {
				itemNode.Style = yaml.DoubleQuotedStyle
			}
			node.Content = append(node.Content, itemNode)
		}
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
	return node, nil
}

func needsQuoting(s string) bool {
	return strings.HasPrefix(s, "[") || strings.HasPrefix(s, "*") ||
		strings.Contains(s, ": ") || strings.HasPrefix(s, "#")
}
