package cheatsheet

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkitlanka/devkit/internal/errors"
)

func TestBuiltinSheets(t *testing.T) {
	repo := Default()
	assert.Equal(t, []string{"git", "linux", "docker", "npm"}, repo.IDs())

	want := map[string]int{"git": 21, "linux": 20, "docker": 11, "npm": 10}
	for id, n := range want {
		s, err := repo.Sheet(id)
		require.NoError(t, err)
		assert.Len(t, s.Entries, n, id)
		assert.Equal(t, SourceBuiltin, s.Source)
		assert.Equal(t, "si", s.Language)
	}

	npm, _ := repo.Sheet("npm")
	assert.Equal(t, "npm/pnpm", npm.Label)
	assert.Equal(t, "git", repo.First().ID)
}

func TestSheetNotFound(t *testing.T) {
	_, err := Default().Sheet("kubectl")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeSheetNotFound))
}

func TestFilter(t *testing.T) {
	git, err := Default().Sheet("git")
	require.NoError(t, err)

	tests := []struct {
		name     string
		query    string
		category string
		want     int
		first    string
	}{
		{"everything", "", AllCategories, 21, "git init"},
		{"empty category means all", "", "", 21, "git init"},
		{"category only", "", "Branching", 4, "git branch"},
		{"case insensitive command", "STASH", AllCategories, 2, "git stash"},
		{"description match", "binary search", AllCategories, 1, "git bisect"},
		{"localized match", "ඉතිහාසය", AllCategories, 1, "git log"},
		{"query and category", "branch", "Remote", 1, "git push origin <branch>"},
		{"unknown category", "", "Nope", 0, ""},
		{"no match", "kubectl", AllCategories, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(git, tt.query, tt.category)
			assert.Len(t, got, tt.want)
			if tt.first != "" {
				require.NotEmpty(t, got)
				assert.Equal(t, tt.first, got[0].Command)
			}
		})
	}
}

func TestFilter_UnicodeFolding(t *testing.T) {
	s := &Sheet{ID: "x", Label: "X", Entries: []Entry{
		{Command: "STRASSE", Description: "Straße", Category: "A"},
		{Command: "ΣΊΣΥΦΟΣ", Description: "greek", Category: "A"},
	}}

	assert.Len(t, Filter(s, "strasse", AllCategories), 1)
	assert.Len(t, Filter(s, "σίσυφος", AllCategories), 1)
}

func TestCategories(t *testing.T) {
	docker, err := Default().Sheet("docker")
	require.NoError(t, err)

	cats := Categories(docker)
	assert.Equal(t, []Category{
		{Name: "all", Count: 11},
		{Name: "Cleanup", Count: 2},
		{Name: "Compose", Count: 2},
		{Name: "Interaction", Count: 2},
		{Name: "Lifecycle", Count: 3},
		{Name: "Management", Count: 2},
	}, cats)

	assert.True(t, HasCategory(docker, "Compose"))
	assert.True(t, HasCategory(docker, AllCategories))
	assert.False(t, HasCategory(docker, "Power User"))
}

func TestCopyText(t *testing.T) {
	tests := map[string]string{
		"git clone <url>":             "git clone",
		"git checkout -b <branch>":    "git checkout -b",
		"docker stop <id|name>":       "docker stop",
		"git commit -m 'message'":     "git commit -m 'message'",
		"lsof -i :<port>":             "lsof -i :",
		"find <path> -name <pattern>": "find  -name",
		"pwd":                         "pwd",
	}
	for in, want := range tests {
		assert.Equal(t, want, CopyText(in), in)
	}

	assert.Equal(t, "npm install", Entry{Command: "npm install <pkg>"}.CopyText())
}

func TestDecode_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"missing id", "label: X\nentries:\n  - {command: a, description: b, category: c}\n"},
		{"missing label", "id: x\nentries:\n  - {command: a, description: b, category: c}\n"},
		{"no entries", "id: x\nlabel: X\nentries: []\n"},
		{"entry without category", "id: x\nlabel: X\nentries:\n  - {command: a, description: b}\n"},
		{"reserved category", "id: x\nlabel: X\nentries:\n  - {command: a, description: b, category: all}\n"},
		{"unknown field", "id: x\nlabel: X\ncolour: red\nentries:\n  - {command: a, description: b, category: c}\n"},
		{"id with slash", "id: a/b\nlabel: X\nentries:\n  - {command: a, description: b, category: c}\n"},
		{"not yaml", "id: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.yaml), "test.yaml")
			require.Error(t, err)
			assert.True(t, errors.HasErrorCode(err, errors.ErrCodeMalformedSheet))
		})
	}

	s, err := Decode(strings.NewReader("id: kubectl\nlabel: kubectl\nentries:\n  - {command: kubectl get pods, description: List pods, category: Pods}\n"), "ok.yaml")
	require.NoError(t, err)
	assert.Equal(t, "si", s.Language)
}

const kubectlSheet = `id: kubectl
label: kubectl
language: si
entries:
  - command: kubectl get pods
    description: List pods
    localized: pods ලැයිස්තුව
    category: Pods
`

func TestRepository_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kubectl.yaml"), []byte(kubectlSheet), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "git.yml"), []byte(
		"id: git\nlabel: Team Git\nentries:\n  - {command: git sync, description: Team alias, category: Team}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	repo, err := NewRepository(Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"git", "linux", "docker", "npm", "kubectl"}, repo.IDs())

	git, err := repo.Sheet("git")
	require.NoError(t, err)
	assert.Equal(t, "Team Git", git.Label)
	assert.Equal(t, filepath.Join(dir, "git.yml"), git.Source)
}

func TestRepository_DuplicateIDsInDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(kubectlSheet), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(kubectlSheet), 0o644))

	_, err := NewRepository(Options{Dir: dir})
	require.Error(t, err)
	assert.True(t, errors.HasErrorCode(err, errors.ErrCodeMalformedSheet))
}

func TestRepository_ReloadKeepsTableOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kubectl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(kubectlSheet), 0o644))

	repo, err := NewRepository(Options{Dir: dir})
	require.NoError(t, err)
	before := repo.Sheets()

	require.NoError(t, os.WriteFile(path, []byte("id: [\n"), 0o644))
	require.Error(t, repo.Reload())
	assert.Equal(t, before, repo.Sheets())
	assert.Equal(t, int64(1), repo.Reloads())
}

func TestRepository_Watch(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewRepository(Options{Dir: dir, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	assert.Len(t, repo.IDs(), 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, repo.Watch(ctx))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "kubectl.yaml"), []byte(kubectlSheet), 0o644))

	assert.Eventually(t, func() bool {
		_, err := repo.Sheet("kubectl")
		return err == nil
	}, 3*time.Second, 20*time.Millisecond)
}

func TestRepository_WatchWithoutDir(t *testing.T) {
	err := Default().Watch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasErrorType(err, errors.ErrorTypeConfig))
}
