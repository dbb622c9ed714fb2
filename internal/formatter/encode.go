package formatter

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devkitlanka/devkit/internal/errors"
)

// maxExpandedNodes caps alias expansion when a YAML document is flattened
// into JSON.
const maxExpandedNodes = 1_000_000

var jsonNumberPattern = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?(?:[eE][+-]?\d+)?$`)

type jsonWriter struct {
	buf    bytes.Buffer
	indent string
	minify bool
	budget int
}

// encodeJSON writes the documents as JSON. Several documents become one
// array; an empty document is null.
func encodeJSON(nodes []*yaml.Node, indent int, minify bool) (string, error) {
	w := &jsonWriter{
		indent: strings.Repeat(" ", indent),
		minify: minify,
		budget: maxExpandedNodes,
	}

	root := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: nodes}
	if len(nodes) == 1 {
		root = nodes[0]
	}
	if err := w.node(root, 0, 0); err != nil {
		return "", err
	}

	return w.buf.String(), nil
}

func (w *jsonWriter) node(n *yaml.Node, level, depth int) error {
	if depth > maxDepth {
		return errors.NewFormatParseError("document nested too deeply", n.Line, n.Column, nil)
	}
	w.budget--
	if w.budget < 0 {
		return errors.NewFormatParseError("document expands to too many values", n.Line, n.Column, nil).
			WithHints("aliases that refer to large anchors multiply the output size")
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			w.buf.WriteString("null")

			return nil
		}

		return w.node(n.Content[0], level, depth+1)
	case yaml.AliasNode:
		if n.Alias == nil {
			return errors.NewFormatParseError("unknown anchor "+n.Value, n.Line, n.Column, nil)
		}

		return w.node(n.Alias, level, depth+1)
	case yaml.MappingNode:
		return w.mapping(n, level, depth)
	case yaml.SequenceNode:
		return w.sequence(n, level, depth)
	case yaml.ScalarNode:
		return w.scalar(n)
	}

	w.buf.WriteString("null")

	return nil
}

type pair struct {
	key string
	val *yaml.Node
}

func (w *jsonWriter) mapping(n *yaml.Node, level, depth int) error {
	pairs, err := mappingPairs(n, depth)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		w.buf.WriteString("{}")

		return nil
	}

	w.buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		w.newline(level + 1)
		w.writeString(p.key)
		w.buf.WriteByte(':')
		if !w.minify {
			w.buf.WriteByte(' ')
		}
		if err := w.node(p.val, level+1, depth+1); err != nil {
			return err
		}
	}
	w.newline(level)
	w.buf.WriteByte('}')

	return nil
}

func (w *jsonWriter) sequence(n *yaml.Node, level, depth int) error {
	if len(n.Content) == 0 {
		w.buf.WriteString("[]")

		return nil
	}

	w.buf.WriteByte('[')
	for i, c := range n.Content {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		w.newline(level + 1)
		if err := w.node(c, level+1, depth+1); err != nil {
			return err
		}
	}
	w.newline(level)
	w.buf.WriteByte(']')

	return nil
}

func (w *jsonWriter) newline(level int) {
	if w.minify {
		return
	}
	w.buf.WriteByte('\n')
	for range level {
		w.buf.WriteString(w.indent)
	}
}

func (w *jsonWriter) scalar(n *yaml.Node) error {
	switch n.ShortTag() {
	case "!!null":
		w.buf.WriteString("null")
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			w.writeString(n.Value)

			return nil
		}
		if b {
			w.buf.WriteString("true")
		} else {
			w.buf.WriteString("false")
		}
	case "!!int", "!!float":
		return w.number(n)
	default:
		w.writeString(n.Value)
	}

	return nil
}

// number keeps the literal text when it is already a JSON number and
// otherwise normalises YAML spellings such as 0x1F, 1_000 or .5.
func (w *jsonWriter) number(n *yaml.Node) error {
	if jsonNumberPattern.MatchString(n.Value) {
		w.buf.WriteString(n.Value)

		return nil
	}

	var v interface{}
	if err := n.Decode(&v); err != nil {
		// explicitly tagged text such as "!!int abc" stays a string
		w.writeString(n.Value)

		return nil
	}
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return errors.NewFormatParseError(
			"value "+n.Value+" cannot be represented in JSON", n.Line, n.Column, nil,
		).WithContext("value", n.Value).WithHints("quote the value to keep it as a string")
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return errors.NewFormatParseError(err.Error(), n.Line, n.Column, err)
	}
	w.buf.Write(raw)

	return nil
}

func (w *jsonWriter) writeString(s string) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	w.buf.Write(bytes.TrimRight(b.Bytes(), "\n"))
}

// mappingPairs flattens a mapping into ordered key/value pairs. A repeated
// key keeps its first position and its last value. Merge keys (<<) insert
// the keys of the referenced mappings unless the mapping defines them
// itself; among several merge sources the earlier one wins.
func mappingPairs(n *yaml.Node, depth int) ([]pair, error) {
	if depth > maxDepth {
		return nil, errors.NewFormatParseError("document nested too deeply", n.Line, n.Column, nil)
	}

	var out []pair
	index := make(map[string]int)
	set := func(k string, v *yaml.Node, override bool) {
		if i, ok := index[k]; ok {
			if override {
				out[i].val = v
			}

			return
		}
		index[k] = len(out)
		out = append(out, pair{key: k, val: v})
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if isMergeKey(k) {
			merged, err := mergeSources(v, depth)
			if err != nil {
				return nil, err
			}
			for _, p := range merged {
				set(p.key, p.val, false)
			}

			continue
		}

		key, err := keyString(k)
		if err != nil {
			return nil, err
		}
		set(key, v, true)
	}

	return out, nil
}

func isMergeKey(k *yaml.Node) bool {
	return k.Kind == yaml.ScalarNode && k.Value == "<<" && k.ShortTag() == "!!merge"
}

func mergeSources(v *yaml.Node, depth int) ([]pair, error) {
	v = resolveAlias(v)
	switch v.Kind {
	case yaml.MappingNode:
		return mappingPairs(v, depth+1)
	case yaml.SequenceNode:
		var out []pair
		seen := make(map[string]bool)
		for _, item := range v.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.MappingNode {
				return nil, errors.NewFormatParseError("merge sequence items must be mappings", item.Line, item.Column, nil)
			}
			pairs, err := mappingPairs(item, depth+1)
			if err != nil {
				return nil, err
			}
			for _, p := range pairs {
				if !seen[p.key] {
					seen[p.key] = true
					out = append(out, p)
				}
			}
		}

		return out, nil
	}

	return nil, errors.NewFormatParseError("merge value must be a mapping", v.Line, v.Column, nil)
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for i := 0; n.Kind == yaml.AliasNode && n.Alias != nil && i < maxDepth; i++ {
		n = n.Alias
	}

	return n
}

func keyString(k *yaml.Node) (string, error) {
	k = resolveAlias(k)
	if k.Kind != yaml.ScalarNode {
		return "", errors.NewFormatParseError("complex mapping keys cannot be represented in JSON", k.Line, k.Column, nil)
	}
	if k.ShortTag() == "!!null" {
		return "null", nil
	}

	return k.Value, nil
}

// encodeYAML writes the documents as a YAML stream.
func encodeYAML(nodes []*yaml.Node, indent int, minify bool) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)

	for _, doc := range nodes {
		if minify {
			doc = flowCopy(doc, make(map[*yaml.Node]*yaml.Node))
		}
		if err := enc.Encode(doc); err != nil {
			return "", errors.Wrap(err, errors.ErrorTypeFormatParse, errors.ErrCodeUnsupportedValue, "cannot encode YAML")
		}
	}
	if err := enc.Close(); err != nil {
		return "", errors.WrapInternal(err, errors.ErrCodeInternalError, "flush YAML encoder")
	}

	return strings.TrimRight(buf.String(), "\n"), nil
}

// flowCopy returns a comment-free copy of n with every collection in flow
// style. The source tree is left untouched.
func flowCopy(n *yaml.Node, seen map[*yaml.Node]*yaml.Node) *yaml.Node {
	if c, ok := seen[n]; ok {
		return c
	}
	c := *n
	seen[n] = &c
	c.HeadComment, c.LineComment, c.FootComment = "", "", ""
	if c.Kind == yaml.MappingNode || c.Kind == yaml.SequenceNode {
		c.Style |= yaml.FlowStyle
	}
	if c.Alias != nil {
		c.Alias = flowCopy(c.Alias, seen)
	}
	if len(n.Content) > 0 {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = flowCopy(child, seen)
		}
	}

	return &c
}
