package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const (
	spinnerInterval = 80 * time.Millisecond
	// Searches shorter than this do not show an elapsed time.
	spinnerElapsedAfter = time.Second
)

// spinner animates a status line on stderr while a long stage runs. It
// stops on its own when its context is cancelled.
type spinner struct {
	out   io.Writer
	ctx   context.Context
	start time.Time

	mu      sync.Mutex
	message string
	width   int // printed width of the last frame

	quit     chan struct{}
	finished chan struct{}
	started  bool
	stopOnce sync.Once
}

func newSpinner(ctx context.Context, message string) *spinner {
	if ctx == nil {
		ctx = context.Background()
	}
	return &spinner{
		out:      os.Stderr,
		ctx:      ctx,
		message:  message,
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start begins the animation.
func (s *spinner) Start() {
	s.mu.Lock()
	s.started = true
	s.start = time.Now()
	s.mu.Unlock()

	go func() {
		defer close(s.finished)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clear()
				return
			case <-s.quit:
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := s.message
	if elapsed := time.Since(s.start); elapsed >= spinnerElapsedAfter {
		line += fmt.Sprintf(" %.1fs", elapsed.Seconds())
	}
	s.eraseLocked()
	fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(line))
	s.width = len(line) + 2
}

// Update replaces the message.
func (s *spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eraseLocked()
	s.message = message
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eraseLocked()
}

func (s *spinner) eraseLocked() {
	if s.width > 0 {
		fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width))
		s.width = 0
	}
}

// Stop ends the animation and clears the line. It may be called more than
// once, and before Start.
func (s *spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.finished
		}
		s.clear()
	})
}

// Fail stops the spinner and prints message as an error line.
func (s *spinner) Fail(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the spinner's context was cancelled.
func (s *spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}
