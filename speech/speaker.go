// Package speech prepares assistant replies for text-to-speech and hands them
// to a synthesizer.
package speech

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"
)

// Speaker is the text-to-speech backend. Say should return once playback has
// been handed off; it must not block until audio finishes.
type Speaker interface {
	Say(ctx context.Context, text string) error
}

// Speak sanitizes text and passes it to the speaker. It is fire-and-forget:
// failures are logged and never reach the caller.
func Speak(ctx context.Context, speaker Speaker, text string, logger zerolog.Logger) {
	if speaker == nil {
		return
	}
	clean := Sanitize(text)
	if clean == "" {
		return
	}
	if err := speaker.Say(ctx, clean); err != nil {
		logger.Warn().Err(err).Str("component", "speech").Msg("Speech playback failed")
	}
}

// Nop discards everything it is asked to say.
type Nop struct{}

func (Nop) Say(context.Context, string) error { return nil }

// CommandSpeaker runs an external synthesizer such as `espeak-ng -v es`,
// appending the text as the last argument. Starting a new utterance stops
// the previous one.
type CommandSpeaker struct {
	command string
	args    []string
	logger  zerolog.Logger

	mu      sync.Mutex
	current *exec.Cmd
	done    chan struct{}
}

// NewCommandSpeaker creates a CommandSpeaker for the given binary and leading arguments.
func NewCommandSpeaker(command string, args []string, logger zerolog.Logger) *CommandSpeaker {
	return &CommandSpeaker{
		command: command,
		args:    append([]string(nil), args...),
		logger:  logger.With().Str("component", "speaker").Logger(),
	}
}

// Say stops any utterance in progress and starts a new one.
func (s *CommandSpeaker) Say(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	args := append(append([]string(nil), s.args...), text)
	//nolint:gosec // G204: synthesizer binary comes from user configuration
	cmd := exec.CommandContext(ctx, s.command, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.command, err)
	}
	done := make(chan struct{})
	s.current = cmd
	s.done = done

	go func() {
		defer close(done)
		if err := cmd.Wait(); err != nil {
			s.logger.Debug().Err(err).Msg("Synthesizer exited")
		}
		s.mu.Lock()
		if s.current == cmd {
			s.current = nil
		}
		s.mu.Unlock()
	}()
	return nil
}

// Wait blocks until the most recent utterance has finished or been stopped.
// It returns immediately when nothing was ever said.
func (s *CommandSpeaker) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Stop interrupts the utterance in progress, if any.
func (s *CommandSpeaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *CommandSpeaker) stopLocked() {
	if s.current == nil || s.current.Process == nil {
		return
	}
	if err := s.current.Process.Kill(); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to stop synthesizer")
	}
	s.current = nil
}
