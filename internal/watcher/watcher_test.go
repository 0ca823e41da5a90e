package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatchesRootAndRunsOnWrite(t *testing.T) {
	dir := t.TempDir()
	var calls int32

	w, err := New([]string{dir}, func(fsnotify.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestCoalescesBurstIntoOneSync(t *testing.T) {
	dir := t.TempDir()
	var calls int32

	w, err := New([]string{dir}, func(fsnotify.Event) error {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		return nil
	}, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("x"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(300 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestSyncErrorRoutedToOnError(t *testing.T) {
	dir := t.TempDir()
	errCh := make(chan error, 1)

	w, err := New([]string{dir}, func(fsnotify.Event) error {
		return errors.New("boom")
	}, WithDebounce(10*time.Millisecond), WithOnError(func(err error) {
		select {
		case errCh <- err:
		default:
		}
	}))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("x"), 0o644))

	select {
	case err := <-errCh:
		assert.EqualError(t, err, "boom")
	case <-time.After(time.Second):
		t.Fatal("expected on_error to be invoked")
	}
}

func TestCloseIsIdempotentAndClearsReady(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, func(fsnotify.Event) error { return nil })
	require.NoError(t, err)

	assert.True(t, w.IsReady())
	require.NoError(t, w.Close())
	assert.False(t, w.IsReady())
	require.NoError(t, w.Close())
}
