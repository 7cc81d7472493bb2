package trigger_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"voicebox/internal/infra/trigger"
)

func TestStdin_WaitReturnsPerLine(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	trig := trigger.NewStdinFromReader(strings.NewReader("\n\n"), logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 2; i++ {
		if err := trig.Wait(ctx); err != nil {
			t.Fatalf("Wait %d error: %v", i, err)
		}
	}
}

func TestStdin_WaitHonorsContext(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	trig := trigger.NewStdinFromReader(strings.NewReader(""), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := trig.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait error: got %v, want deadline exceeded", err)
	}
}
