package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestLogFormatsTagAndMessage(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Log("MAIN", "listening on %s", "127.0.0.1:8080")
	line := buf.String()
	if !strings.Contains(line, "[MAIN]") {
		t.Fatalf("expected tag [MAIN] in line, got %q", line)
	}
	if !strings.Contains(line, "listening on 127.0.0.1:8080") {
		t.Fatalf("expected formatted message in line, got %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("expected line to end with newline, got %q", line)
	}
}

func TestLogSerializesConcurrentWriters(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	var wg sync.WaitGroup
	const n = 50
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Log("Thread-1", "line")
		}()
	}
	wg.Wait()
	lines := strings.Count(buf.String(), "\n")
	if lines != n {
		t.Fatalf("expected %d lines, got %d (interleaving or lost writes)", n, lines)
	}
}
