package formatter

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	yamlv2 "gopkg.in/yaml.v2"
	"gopkg.in/yaml.v3"

	"github.com/devkitlanka/devkit/internal/errors"
)

// maxDepth bounds nesting so hostile input cannot exhaust the stack.
const maxDepth = 1000

// Parse reads text in the given format. dialect only affects YAML and
// defaults to YAML 1.2.
func Parse(text string, f Format, dialect Dialect) (*Document, error) {
	switch f {
	case JSON:
		node, err := parseJSON(text)
		if err != nil {
			return nil, err
		}

		return &Document{Source: JSON, Nodes: []*yaml.Node{node}}, nil
	case YAML:
		nodes, err := parseYAML(text, dialect)
		if err != nil {
			return nil, err
		}

		return &Document{Source: YAML, Nodes: nodes}, nil
	}

	return nil, errors.NewValidationError(errors.ErrCodeUnsupportedFormat,
		fmt.Sprintf("unsupported format %q", f))
}

type jsonParser struct {
	src string
	dec *json.Decoder
}

// parseJSON reads exactly one JSON value. Object keys keep their first
// position; a repeated key replaces the earlier value. Numbers keep their
// literal text.
func parseJSON(text string) (*yaml.Node, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	p := &jsonParser{src: text, dec: dec}

	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	root, err := p.value(tok, 0)
	if err != nil {
		return nil, err
	}

	end := p.dec.InputOffset()
	if _, err := p.dec.Token(); err != io.EOF {
		if err != nil {
			return nil, p.fail(err)
		}

		return nil, p.failAt(skipSpace(text, end), "unexpected data after top-level value", nil)
	}

	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}, nil
}

func (p *jsonParser) next() (json.Token, error) {
	tok, err := p.dec.Token()
	if err != nil {
		return nil, p.fail(err)
	}

	return tok, nil
}

func (p *jsonParser) value(tok json.Token, depth int) (*yaml.Node, error) {
	if depth > maxDepth {
		return nil, p.failAt(p.dec.InputOffset(), "document nested too deeply", nil)
	}

	switch v := tok.(type) {
	case json.Delim:
		if v == '{' {
			return p.object(depth)
		}

		return p.array(depth)
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}, nil
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(string(v), ".eE") {
			tag = "!!float"
		}

		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(v)}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}

	return nil, p.failAt(p.dec.InputOffset(), fmt.Sprintf("unexpected token %v", tok), nil)
}

func (p *jsonParser) object(depth int) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	seen := make(map[string]int)

	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return node, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, p.failAt(p.dec.InputOffset(), "object key must be a string", nil)
		}

		tok, err = p.next()
		if err != nil {
			return nil, err
		}
		val, err := p.value(tok, depth+1)
		if err != nil {
			return nil, err
		}

		if i, dup := seen[key]; dup {
			node.Content[i+1] = val

			continue
		}
		seen[key] = len(node.Content)
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
	}
}

func (p *jsonParser) array(depth int) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}

	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			return node, nil
		}
		val, err := p.value(tok, depth+1)
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, val)
	}
}

func (p *jsonParser) fail(err error) error {
	var se *json.SyntaxError
	switch {
	case stderrors.As(err, &se):
		return p.failAt(se.Offset, se.Error(), err)
	case err == io.EOF || stderrors.Is(err, io.ErrUnexpectedEOF):
		return p.failAt(int64(len(p.src)), "unexpected end of JSON input", err)
	}

	return p.failAt(p.dec.InputOffset(), err.Error(), err)
}

func (p *jsonParser) failAt(offset int64, msg string, cause error) error {
	line, col := position(p.src, offset)

	return errors.NewFormatParseError(msg, line, col, cause).WithSource("json")
}

// position converts a byte offset into a 1-based line and column. Columns
// count characters, not bytes.
func position(src string, offset int64) (int, int) {
	if offset > int64(len(src)) {
		offset = int64(len(src))
	}
	if offset < 0 {
		offset = 0
	}
	before := src[:offset]
	line := strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1

	return line, utf8.RuneCountInString(before[lineStart:]) + 1
}

func skipSpace(src string, offset int64) int64 {
	for offset < int64(len(src)) && strings.IndexByte(" \t\r\n", src[offset]) >= 0 {
		offset++
	}

	return offset
}

// parseYAML reads every document of a YAML stream.
func parseYAML(text string, dialect Dialect) ([]*yaml.Node, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))

	var docs []*yaml.Node
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, yamlParseError(err)
		}
		if dialect == YAML11 {
			if err := resolveYAML11(&doc); err != nil {
				return nil, err
			}
		}
		docs = append(docs, &doc)
	}

	if len(docs) == 0 {
		// a stream of only comments or "---" still holds one empty document
		docs = append(docs, &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!null", Value: ""},
		}})
	}

	return docs, nil
}

var yamlLinePattern = regexp.MustCompile(`line (\d+)(?:, column (\d+))?`)

func yamlParseError(err error) error {
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	var line, col int
	if m := yamlLinePattern.FindStringSubmatch(msg); m != nil {
		line, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			col, _ = strconv.Atoi(m[2])
		}
	}

	return errors.NewFormatParseError(msg, line, col, err).WithSource("yaml")
}

// resolveYAML11 re-types the plain scalars of a document with the YAML 1.1
// resolver of yaml.v2. Booleans and numbers are rewritten into their
// canonical YAML 1.2 spelling so later stages need no dialect awareness.
func resolveYAML11(n *yaml.Node) error {
	return walk(n, 0, func(s *yaml.Node) {
		if s.Kind != yaml.ScalarNode || s.Style != 0 || s.Value == "" || s.Tag == "!!merge" {
			return
		}
		if strings.HasPrefix(s.Tag, "!") && !strings.HasPrefix(s.Tag, "!!") {
			return
		}

		var v interface{}
		if err := yamlv2.Unmarshal([]byte(s.Value), &v); err != nil {
			return
		}

		switch x := v.(type) {
		case bool:
			s.Tag, s.Value = "!!bool", strconv.FormatBool(x)
		case int, int64, uint64:
			s.Tag, s.Value = "!!int", fmt.Sprint(x)
		case float64:
			// keep .inf and .nan spellings; both dialects agree on them
			if s.Tag != "!!float" {
				s.Tag, s.Value = "!!float", strconv.FormatFloat(x, 'g', -1, 64)
			}
		case string:
			s.Tag = "!!str"
		case nil:
			s.Tag = "!!null"
		}
	})
}

// walk visits every node below n, following neither aliases nor cycles.
func walk(n *yaml.Node, depth int, fn func(*yaml.Node)) error {
	if depth > maxDepth {
		return errors.NewFormatParseError("document nested too deeply", n.Line, n.Column, nil)
	}
	fn(n)
	for _, c := range n.Content {
		if err := walk(c, depth+1, fn); err != nil {
			return err
		}
	}

	return nil
}

func decodePlain(text string) (interface{}, error) {
	var v interface{}
	if err := json.NewDecoder(bytes.NewBufferString(text)).Decode(&v); err != nil {
		return nil, errors.WrapInternal(err, errors.ErrCodeInternalError, "decode normalised document")
	}

	return v, nil
}
