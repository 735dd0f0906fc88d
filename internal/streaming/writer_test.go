package streaming

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type blockingWriter struct {
	header http.Header
	block  chan struct{}
}

func (b *blockingWriter) Header() http.Header {
	if b.header == nil {
		b.header = http.Header{}
	}
	return b.header
}

func (b *blockingWriter) Write(p []byte) (int, error) {
	<-b.block
	return len(p), nil
}

func (b *blockingWriter) WriteHeader(int) {}

func TestCopyWritesEverything(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 700*1024)
	rec := httptest.NewRecorder()

	config := DefaultConfig()
	config.ChunkSize = 64 * 1024

	n, err := Copy(context.Background(), rec, bytes.NewReader(payload), config)
	if err != nil {
		t.Fatalf("Copy returned error: %v", err)
	}
	if n != int64(len(payload)) {
		t.Errorf("bytes written = %d, want %d", n, len(payload))
	}
	if !bytes.Equal(rec.Body.Bytes(), payload) {
		t.Error("body does not match payload")
	}
	if !rec.Flushed {
		t.Error("expected chunked writes to flush")
	}
}

func TestCopyWriteTimeout(t *testing.T) {
	w := &blockingWriter{block: make(chan struct{})}
	defer close(w.block)

	config := Config{WriteTimeout: 20 * time.Millisecond}

	_, err := Copy(context.Background(), w, bytes.NewReader([]byte("data")), config)
	if !errors.Is(err, ErrWriteTimeout) {
		t.Fatalf("expected ErrWriteTimeout, got %v", err)
	}
}

func TestCopyClientGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	_, err := Copy(ctx, rec, bytes.NewReader([]byte("data")), DefaultConfig())
	if !errors.Is(err, ErrClientGone) {
		t.Fatalf("expected ErrClientGone, got %v", err)
	}
}

func TestTimeoutWriterClosed(t *testing.T) {
	rec := httptest.NewRecorder()
	tw := NewTimeoutWriter(context.Background(), rec, DefaultConfig())

	if err := tw.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}

	if _, err := tw.Write([]byte("late")); !errors.Is(err, ErrStreamCanceled) {
		t.Errorf("expected ErrStreamCanceled after close, got %v", err)
	}
}
