package formatter

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/devkitlanka/devkit/internal/errors"
)

// SessionState is a snapshot of the formatter page.
type SessionState struct {
	Input        string  `json:"input"`
	Tab          Format  `json:"tab"`
	Indent       int     `json:"indent"`
	Dialect      Dialect `json:"dialect,omitempty"`
	Output       string  `json:"output"`
	OutputFormat Format  `json:"outputFormat"`
	Error        string  `json:"error,omitempty"`
	ErrorLine    int     `json:"errorLine,omitempty"`
	ErrorColumn  int     `json:"errorColumn,omitempty"`
}

// Valid reports whether the last operation succeeded.
func (s SessionState) Valid() bool {
	return s.Error == ""
}

// Session holds the editor state between actions. A failed action records
// the error and leaves both the input and the last good output untouched.
type Session struct {
	mu    sync.Mutex
	conv  *Converter
	state SessionState
}

// NewSession opens a session on the JSON tab with the sample document.
func NewSession(conv *Converter) *Session {
	if conv == nil {
		conv = defaultConverter
	}

	return &Session{
		conv: conv,
		state: SessionState{
			Input:        SampleJSON,
			Tab:          JSON,
			Indent:       conv.defaultIndent,
			OutputFormat: JSON,
		},
	}
}

// RestoreSession rebuilds a session from a snapshot, as carried by a page
// form between requests.
func RestoreSession(conv *Converter, state SessionState) *Session {
	s := NewSession(conv)
	if state.Tab != JSON && state.Tab != YAML {
		state.Tab = Detect(state.Input)
	}
	if state.OutputFormat != JSON && state.OutputFormat != YAML {
		state.OutputFormat = state.Tab
	}
	if state.Indent == 0 {
		state.Indent = s.conv.defaultIndent
	}
	s.state = state

	return s
}

// State returns a copy of the current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// SetInput replaces the editor text.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Input = text
}

// SetTab switches the declared input format.
func (s *Session) SetTab(f Format) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Tab = f
}

// SetIndent changes the indent used by later actions.
func (s *Session) SetIndent(indent int) error {
	if indent < minJSONIndent || indent > maxIndent {
		return errors.InvalidOption("indent", indent, "1..8")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Indent = indent

	return nil
}

// Load puts uploaded or fetched text in the editor and selects its tab.
func (s *Session) Load(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Input = text
	s.state.Tab = DetectFile(name, text)
	s.state.Error, s.state.ErrorLine, s.state.ErrorColumn = "", 0, 0
}

// LoadSample replaces the input with the sample document for the tab.
func (s *Session) LoadSample() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Input = Sample(s.state.Tab)
}

// Clear empties the input, the output and any error.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Input, s.state.Output = "", ""
	s.state.Error, s.state.ErrorLine, s.state.ErrorColumn = "", 0, 0
}

// Apply runs op on the current input. A successful conversion also replaces
// the input with the converted text and moves the session to the other tab.
func (s *Session) Apply(ctx context.Context, op Operation) (SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conv.Process(ctx, Request{
		Input:     s.state.Input,
		From:      s.state.Tab,
		Operation: op,
		Indent:    s.state.Indent,
		Dialect:   s.state.Dialect,
	})
	if err != nil {
		s.state.Error = err.Error()
		s.state.ErrorLine, s.state.ErrorColumn = 0, 0
		var de *errors.DevkitError
		if stderrors.As(err, &de) {
			s.state.Error = de.Message
			s.state.ErrorLine, s.state.ErrorColumn = de.Line, de.Column
		}

		return s.state, err
	}

	s.state.Output = res.Output
	s.state.OutputFormat = res.Format
	s.state.Error, s.state.ErrorLine, s.state.ErrorColumn = "", 0, 0
	if op == OpConvert {
		s.state.Input = res.Output
		s.state.Tab = res.Format
	}

	return s.state, nil
}
