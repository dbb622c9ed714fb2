package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.NotNil(t, watcher.logger)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestFileWatcherAddFilterAndHandler(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.AddFilter(YAMLFilter)
	watcher.AddFilter(NoHiddenFilter)
	assert.Len(t, watcher.filters, 2)

	called := false
	watcher.AddHandler(func(events []ChangeEvent) error {
		called = true
		return nil
	})
	require.Len(t, watcher.handlers, 1)
	require.NoError(t, watcher.handlers[0]([]ChangeEvent{{Type: EventTypeCreated, Path: "git.yaml"}}))
	assert.True(t, called)
}

func TestFileWatcherAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	require.NoError(t, watcher.AddPath(dir))
	assert.Contains(t, watcher.WatchList(), dir)

	assert.Error(t, watcher.AddPath("/non/existent/path"))
	assert.Error(t, watcher.AddPath("../../../etc"))
	assert.Error(t, watcher.AddPath(""))
}

func TestFileWatcherDeliversYAMLChanges(t *testing.T) {
	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	require.NoError(t, watcher.AddPath(dir))
	watcher.AddFilter(YAMLFilter)
	watcher.AddFilter(NoHiddenFilter)

	var mu sync.Mutex
	var seen []string
	watcher.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			seen = append(seen, filepath.Base(e.Path))
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "kubectl.yaml"), []byte("id: kubectl"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.yaml"), []byte("ignored"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, name := range seen {
		assert.Equal(t, "kubectl.yaml", name)
	}
}

func TestFilters(t *testing.T) {
	testCases := []struct {
		path   string
		yaml   bool
		hidden bool
		backup bool
	}{
		{"sheets/git.yaml", true, true, true},
		{"sheets/git.YML", true, true, true},
		{"sheets/git.json", false, true, true},
		{"sheets/.git.yaml.swp", false, false, false},
		{"sheets/git.yaml~", false, true, false},
		{"sheets/tmp.yaml.tmp", false, true, false},
		{"README.md", false, true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.yaml, YAMLFilter(tc.path))
			assert.Equal(t, tc.hidden, NoHiddenFilter(tc.path))
			assert.Equal(t, tc.backup, NoBackupFilter(tc.path))
		})
	}
}

func TestDebouncer(t *testing.T) {
	debouncer := &Debouncer{
		delay:   50 * time.Millisecond,
		events:  make(chan ChangeEvent, 100),
		output:  make(chan []ChangeEvent, 10),
		pending: make([]ChangeEvent, 0),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go debouncer.start(ctx)

	debouncer.events <- ChangeEvent{Path: "b.yaml", Type: EventTypeCreated}
	debouncer.events <- ChangeEvent{Path: "a.yaml", Type: EventTypeModified}
	debouncer.events <- ChangeEvent{Path: "b.yaml", Type: EventTypeModified}

	select {
	case events := <-debouncer.output:
		require.Len(t, events, 2)
		assert.Equal(t, "a.yaml", events[0].Path)
		assert.Equal(t, "b.yaml", events[1].Path)
		assert.Equal(t, EventTypeModified, events[1].Type)
	case <-time.After(time.Second):
		t.Fatal("debouncer did not flush")
	}
}

func TestFileWatcherConcurrency(t *testing.T) {
	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	require.NoError(t, watcher.AddPath(dir))

	var eventMutex sync.Mutex
	eventCount := 0
	watcher.AddHandler(func(events []ChangeEvent) error {
		eventMutex.Lock()
		eventCount += len(events)
		eventMutex.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	time.Sleep(50 * time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("sheet%d.yaml", i)), []byte("id: x"), 0o644))
		}(i)
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		eventMutex.Lock()
		defer eventMutex.Unlock()
		return eventCount > 0
	}, 2*time.Second, 20*time.Millisecond)

	eventMutex.Lock()
	defer eventMutex.Unlock()
	assert.LessOrEqual(t, eventCount, 10)
}

func TestFileWatcherDoubleStop(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)

	assert.NoError(t, watcher.Stop())
	assert.NoError(t, watcher.Stop())
}

func TestAddRecursive(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "team", "ops"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))

	require.NoError(t, watcher.AddRecursive(dir))
	list := watcher.WatchList()
	assert.Contains(t, list, filepath.Join(dir, "team", "ops"))
	assert.NotContains(t, list, filepath.Join(dir, ".git"))

	assert.Error(t, watcher.AddRecursive("../../../etc"))
}
