package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/autocare/assistant"
	"github.com/aschepis/backscratcher/autocare/speech"
)

var quitWords = []string{"salir", "exit", "quit"}

// repl greets the user and answers one utterance per input line until EOF,
// a quit word or ctx cancellation.
func repl(ctx context.Context, session *assistant.Session, in io.Reader, out io.Writer, speaker speech.Speaker, logger zerolog.Logger) error {
	if _, err := fmt.Fprintf(out, "%s\n\n> ", assistant.WelcomeMessage); err != nil {
		return err
	}
	speech.Speak(ctx, speaker, assistant.WelcomeMessage, logger)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			text := strings.TrimSpace(line)
			if text == "" {
				if _, err := fmt.Fprint(out, "> "); err != nil {
					return err
				}
				continue
			}
			if isQuit(text) {
				return nil
			}
			reply := session.Answer(ctx, text)
			if _, err := fmt.Fprintf(out, "%s\n\n> ", reply); err != nil {
				return err
			}
			speech.Speak(ctx, speaker, reply, logger)
		}
	}
}

func isQuit(text string) bool {
	return slices.Contains(quitWords, strings.ToLower(text))
}
