package trigger

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
)

// Stdin treats each line on standard input as a button press. Meant
// for development machines without the GPIO button.
type Stdin struct {
	lines  chan struct{}
	logger *slog.Logger
}

func NewStdin(logger *slog.Logger) *Stdin {
	return NewStdinFromReader(os.Stdin, logger)
}

func NewStdinFromReader(r io.Reader, logger *slog.Logger) *Stdin {
	s := &Stdin{
		lines:  make(chan struct{}),
		logger: logger,
	}

	go func() {
		defer close(s.lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			s.lines <- struct{}{}
		}
	}()

	logger.Info("press enter to talk")
	return s
}

func (s *Stdin) Name() string {
	return "stdin"
}

func (s *Stdin) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-s.lines:
		if !ok {
			// Stdin closed; block until the context ends so the run
			// loop doesn't spin.
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}
}

func (s *Stdin) Close() error {
	return nil
}
