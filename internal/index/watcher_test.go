package index

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/content"
	"github.com/starford/ansuz/internal/testutil"
)

func TestWatchRebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "posts/first.md", testutil.Doc("title: First\ndate: 2022-01-01", "x"))

	sources, err := content.DefaultSources(root)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := Build(context.Background(), content.ModeDevelopment, sources)
	if err != nil {
		t.Fatal(err)
	}
	handle := NewHandle(idx)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, handle, content.ModeDevelopment, root, sources, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	// Let the watcher register its directories before writing.
	time.Sleep(100 * time.Millisecond)
	testutil.WriteFile(t, root, "posts/second.md", testutil.Doc("title: Second\ndate: 2023-01-01", "x"))

	deadline := time.After(5 * time.Second)
	for {
		if len(handle.Get().Entries(content.KindPost)) == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("index was not rebuilt after a content change")
		case <-time.After(50 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop on context cancellation")
	}
}
