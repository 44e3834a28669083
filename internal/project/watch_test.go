package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

type watchResult struct {
	enums int
	err   error
}

func TestWatcherReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := writeFiles(t, map[string]string{
		"sumshape.yaml": "enums: [{name: A, pattern: \"(T)\", variants: [{name: V, fields: [i32]}]}]\n",
	})
	path := filepath.Join(dir, "sumshape.yaml")

	results := make(chan watchResult, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	w := NewWatcher(path, zaptest.NewLogger(t), 20*time.Millisecond)
	go func() {
		done <- w.Run(ctx, func(p *Project, err error) {
			if err != nil {
				results <- watchResult{err: err}
				return
			}
			results <- watchResult{enums: len(p.Definitions)}
		})
	}()

	next := func() watchResult {
		t.Helper()
		select {
		case r := <-results:
			return r
		case <-time.After(10 * time.Second):
			t.Fatal("no report from watcher")
			return watchResult{}
		}
	}

	first := next()
	require.NoError(t, first.err)
	assert.Equal(t, 1, first.enums)

	require.NoError(t, os.WriteFile(path, []byte("enums: ["), 0o644))
	broken := next()
	require.Error(t, broken.err)

	require.NoError(t, os.WriteFile(path, []byte(
		"enums:\n"+
			"  - {name: A, pattern: \"(T)\", variants: [{name: V, fields: [i32]}]}\n"+
			"  - {name: B, pattern: \"()\", variants: [{name: U}]}\n"), 0o644))
	fixed := next()
	require.NoError(t, fixed.err)
	assert.Equal(t, 2, fixed.enums)

	// Files that are not inputs are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	select {
	case r := <-results:
		t.Fatalf("unexpected report: %+v", r)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewWatcherDefaults(t *testing.T) {
	w := NewWatcher("a/../sumshape.yaml", nil, 0)
	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.Equal(t, "sumshape.yaml", w.path)
}
