// Package formatter parses, pretty-prints, minifies and converts JSON and
// YAML documents.
//
// Every document is parsed into a gopkg.in/yaml.v3 node tree, which keeps
// mapping key order, comments and anchors. JSON input is read with a strict
// token stream; YAML input is read with yaml.v3 (YAML 1.2) or, for legacy
// files, resolved with the YAML 1.1 rules of gopkg.in/yaml.v2. The output of
// a conversion is semantically equal to the input, not byte-identical.
package formatter

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/logging"
)

// Format names a document syntax.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// Other returns the conversion target for f.
func (f Format) Other() Format {
	if f == JSON {
		return YAML
	}

	return JSON
}

// ParseFormat accepts json, yaml or yml in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}

	return "", errors.InvalidOption("format", s, string(JSON), string(YAML))
}

// Operation is one of the actions offered by the control panel.
type Operation string

const (
	OpFormat  Operation = "format"
	OpMinify  Operation = "minify"
	OpConvert Operation = "convert"
	OpIndent  Operation = "indent"
)

// ParseOperation validates an operation name.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case OpFormat, OpMinify, OpConvert, OpIndent:
		return op, nil
	case "":
		return OpFormat, nil
	}

	return "", errors.InvalidOption("operation", s,
		string(OpFormat), string(OpMinify), string(OpConvert), string(OpIndent))
}

// Dialect selects the YAML resolution rules.
type Dialect string

const (
	// YAML12 follows YAML 1.2: only true/false are booleans.
	YAML12 Dialect = "1.2"
	// YAML11 follows YAML 1.1: yes/no/on/off are booleans, 0777 is octal.
	YAML11 Dialect = "1.1"
)

// Indent widths offered by the control panel.
var IndentChoices = []int{2, 4, 8}

const (
	DefaultIndent = 2
	minJSONIndent = 1
	minYAMLIndent = 2
	maxIndent     = 8
)

// Request describes one formatter action.
type Request struct {
	Input     string    `json:"input"`
	From      Format    `json:"from"`
	Operation Operation `json:"operation"`
	Indent    int       `json:"indent,omitempty"`
	Dialect   Dialect   `json:"dialect,omitempty"`
}

// Result is the output of a formatter action.
type Result struct {
	Output    string `json:"output"`
	Format    Format `json:"format"`
	Documents int    `json:"documents"`
	Indent    int    `json:"indent"`
}

// Options configure a Converter.
type Options struct {
	DefaultIndent int
	// MaxInputBytes rejects larger inputs; 0 means unlimited.
	MaxInputBytes int64
	Logger        logging.Logger
}

// Converter runs formatter requests with configured limits.
type Converter struct {
	defaultIndent int
	maxInputBytes int64
	logger        logging.Logger
}

// NewConverter creates a converter.
func NewConverter(opts Options) *Converter {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	indent := opts.DefaultIndent
	if indent == 0 {
		indent = DefaultIndent
	}

	return &Converter{
		defaultIndent: indent,
		maxInputBytes: opts.MaxInputBytes,
		logger:        logger.WithComponent("formatter"),
	}
}

// Process parses req.Input as req.From and serialises it according to the
// operation. Format and indent re-serialise in the source format, minify
// removes optional whitespace, convert switches to the other format. Blank
// input yields blank output.
func (c *Converter) Process(ctx context.Context, req Request) (*Result, error) {
	if c.maxInputBytes > 0 && int64(len(req.Input)) > c.maxInputBytes {
		return nil, errors.InputTooLarge(int64(len(req.Input)), c.maxInputBytes)
	}
	if req.From != JSON && req.From != YAML {
		return nil, errors.NewValidationError(errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported format %q", req.From)).WithHints("use json or yaml")
	}
	op := req.Operation
	if op == "" {
		op = OpFormat
	}
	indent := req.Indent
	if indent == 0 {
		indent = c.defaultIndent
	}

	target := req.From
	if op == OpConvert {
		target = req.From.Other()
	}
	if err := checkIndent(target, indent); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Input) == "" {
		return &Result{Format: target, Indent: indent}, nil
	}

	doc, err := Parse(req.Input, req.From, req.Dialect)
	if err != nil {
		c.logger.Debug(ctx, "Parse failed", "format", req.From, "error", err.Error())

		return nil, err
	}

	out, err := doc.Encode(target, indent, op == OpMinify)
	if err != nil {
		return nil, err
	}

	return &Result{Output: out, Format: target, Documents: len(doc.Nodes), Indent: indent}, nil
}

func checkIndent(f Format, indent int) error {
	lowest := minJSONIndent
	if f == YAML {
		lowest = minYAMLIndent
	}
	if indent < lowest || indent > maxIndent {
		return errors.InvalidOption("indent", indent, fmt.Sprintf("%d..%d", lowest, maxIndent))
	}

	return nil
}

var defaultConverter = NewConverter(Options{})

// Pretty re-serialises text in its own format with the given indent.
func Pretty(text string, f Format, indent int) (string, error) {
	return run(OpFormat, text, f, indent)
}

// Minify re-serialises text in its own format without optional whitespace.
func Minify(text string, f Format) (string, error) {
	return run(OpMinify, text, f, DefaultIndent)
}

// Convert re-serialises text in the other format.
func Convert(text string, from Format, indent int) (string, error) {
	return run(OpConvert, text, from, indent)
}

func run(op Operation, text string, f Format, indent int) (string, error) {
	res, err := defaultConverter.Process(context.Background(), Request{
		Input: text, From: f, Operation: op, Indent: indent,
	})
	if err != nil {
		return "", err
	}

	return res.Output, nil
}

// Document is a parsed JSON or YAML stream. Nodes holds one document node
// per YAML document; JSON always yields exactly one.
type Document struct {
	Source Format
	Nodes  []*yaml.Node
}

// Encode serialises the document. Minified YAML uses flow style; a YAML
// stream of several documents becomes a JSON array.
func (d *Document) Encode(f Format, indent int, minify bool) (string, error) {
	switch f {
	case JSON:
		return encodeJSON(d.Nodes, indent, minify)
	case YAML:
		return encodeYAML(d.Nodes, indent, minify)
	}

	return "", errors.NewValidationError(errors.ErrCodeUnsupportedFormat,
		fmt.Sprintf("unsupported format %q", f))
}

// Value decodes the document into plain Go values (map[string]interface{},
// []interface{}, strings, numbers, booleans and nil). It is used to compare
// documents structurally.
func (d *Document) Value() (interface{}, error) {
	out, err := encodeJSON(d.Nodes, 0, true)
	if err != nil {
		return nil, err
	}

	return decodePlain(out)
}
