package formatter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkitlanka/devkit/internal/errors"
)

func TestSession_FailureKeepsLastOutput(t *testing.T) {
	ctx := context.Background()
	s := NewSession(nil)

	st, err := s.Apply(ctx, OpMinify)
	require.NoError(t, err)
	good := st.Output
	assert.NotEmpty(t, good)
	assert.True(t, st.Valid())

	s.SetInput(`{"a":}`)
	st, err = s.Apply(ctx, OpFormat)
	require.Error(t, err)
	assert.True(t, errors.IsFormatParseError(err))
	assert.Equal(t, good, st.Output)
	assert.Equal(t, `{"a":}`, st.Input)
	assert.False(t, st.Valid())
	assert.Equal(t, 1, st.ErrorLine)
}

func TestSession_FailureWithoutPriorOutput(t *testing.T) {
	s := NewSession(nil)
	s.SetInput(`{"a":}`)

	st, err := s.Apply(context.Background(), OpFormat)
	require.Error(t, err)
	assert.Empty(t, st.Output)
}

func TestSession_ConvertSwitchesTab(t *testing.T) {
	s := NewSession(nil)

	st, err := s.Apply(context.Background(), OpConvert)
	require.NoError(t, err)
	assert.Equal(t, YAML, st.Tab)
	assert.Equal(t, YAML, st.OutputFormat)
	assert.Equal(t, st.Output, st.Input)

	st, err = s.Apply(context.Background(), OpConvert)
	require.NoError(t, err)
	assert.Equal(t, JSON, st.Tab)
	assert.Equal(t, SampleJSON, st.Output)
}

func TestSession_IndentAndLoad(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.SetIndent(4))
	assert.Error(t, s.SetIndent(9))

	s.Load("service.yml", "a: 1")
	assert.Equal(t, YAML, s.State().Tab)

	st, err := s.Apply(context.Background(), OpFormat)
	require.NoError(t, err)
	assert.Equal(t, "a: 1", st.Output)

	s.SetTab(JSON)
	s.LoadSample()
	assert.Equal(t, SampleJSON, s.State().Input)

	s.Clear()
	assert.Empty(t, s.State().Input)
	assert.Empty(t, s.State().Output)
}

func TestRestoreSession(t *testing.T) {
	s := RestoreSession(nil, SessionState{Input: "[1, 2]", Output: "previous"})
	st := s.State()
	assert.Equal(t, JSON, st.Tab)
	assert.Equal(t, JSON, st.OutputFormat)
	assert.Equal(t, DefaultIndent, st.Indent)
	assert.Equal(t, "previous", st.Output)
}
