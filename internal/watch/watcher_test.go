package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsSourceChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor"), 0755))

	w, err := New([]string{root}, func(name string) bool { return name == "vendor" }, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batches := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, paths []string) error {
			batches <- paths
			return nil
		})
	}()

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "vendor", "Lib.php"), []byte("<?php"), 0644))
	cart := filepath.Join(root, "Cart.php")
	require.NoError(t, os.WriteFile(cart, []byte("<?php\nclass Cart {}\n"), 0644))

	select {
	case paths := <-batches:
		assert.Equal(t, []string{cart}, paths)
	case <-ctx.Done():
		t.Fatal("no change reported")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
