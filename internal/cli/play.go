package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/domain"
	"study-quiz-service/internal/session"
)

const saveWaitTimeout = 5 * time.Second

// NewPlayCmd runs one quiz in the terminal against the configured infrastructure.
func NewPlayCmd(configPath *string) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "play <quiz-id>",
		Short: "Take a quiz in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, log, err := loadConfig(*configPath, "warn")
			if err != nil {
				return err
			}
			d, err := buildDeps(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer d.Close()

			if userID == "" && d.backend != nil {
				userID = d.backend.UserID()
			}
			return runPlay(ctx, os.Stdin, cmd.OutOrStdout(), d.service(), args[0], userID)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID recorded with the attempt")
	return cmd
}

// runPlay drives a session from line input: a letter answers and moves on,
// "quit" abandons the attempt. The countdown can end the quiz at any prompt.
func runPlay(ctx context.Context, in io.Reader, out io.Writer, service *app.QuizService, quizID, userID string) error {
	snap, err := service.Start(ctx, quizID, userID)
	if err != nil {
		return err
	}
	defer service.Close(context.Background(), snap.ID)

	events, cancel, err := service.Subscribe(ctx, snap.ID)
	if err != nil {
		return err
	}
	defer cancel()

	fmt.Fprintf(out, "%s (%d questions", snap.Title, snap.Total)
	if snap.Timed {
		fmt.Fprintf(out, ", %s", snap.Clock)
	}
	fmt.Fprintln(out, ")")

	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)
	for snap.Status == domain.StatusInProgress {
		printQuestion(out, snap)

		var line string
		var ok bool
	wait:
		for {
			select {
			case line, ok = <-lines:
				break wait
			case ev, open := <-events:
				if !open {
					return nil
				}
				if ev.Type == session.EventTick && (ev.Remaining == 60 || ev.Remaining == 10) {
					fmt.Fprintf(out, "\n%s left\n", session.FormatClock(ev.Remaining))
				}
				if ev.Type == session.EventCompleted {
					snap, err = service.Snapshot(ctx, snap.ID)
					if err != nil {
						return err
					}
					printResult(out, snap)
					fmt.Fprintln(out, awaitSave(events, snap))
					return nil
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if !ok {
			fmt.Fprintln(out, "\nInput closed, quiz abandoned.")
			return nil
		}
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "quit") {
			fmt.Fprintln(out, "Quiz abandoned.")
			return nil
		}

		option, valid := parseOption(line, len(snap.Question.Options))
		if !valid {
			fmt.Fprintln(out, "Invalid input.")
			continue
		}
		answered, err := service.SelectAnswer(ctx, snap.ID, option)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotInProgress) {
				continue
			}
			return err
		}
		printFeedback(out, answered)

		next, err := service.Advance(ctx, snap.ID)
		if errors.Is(err, domain.ErrSessionNotInProgress) {
			// The countdown finished the session first.
			next, err = service.Snapshot(ctx, snap.ID)
		}
		if err != nil {
			return err
		}
		snap = next
	}

	printResult(out, snap)
	fmt.Fprintln(out, awaitSave(events, snap))
	return nil
}

// readLines forwards lines from in until EOF or done is closed. A read that
// is already blocked returns only with the next line or EOF; the goroutine
// then exits without delivering it.
func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		reader := bufio.NewReader(in)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				select {
				case lines <- line:
				case <-done:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}

// parseOption accepts a letter (A, b, ...) or a 1-based number.
func parseOption(input string, optionCount int) (int, bool) {
	if input == "" || optionCount < 1 {
		return 0, false
	}
	answer := strings.ToUpper(input)
	if len(answer) == 1 && answer[0] >= 'A' && int(answer[0]-'A') < optionCount {
		return int(answer[0] - 'A'), true
	}
	var n int
	if _, err := fmt.Sscanf(answer, "%d", &n); err == nil && n >= 1 && n <= optionCount && fmt.Sprint(n) == answer {
		return n - 1, true
	}
	return 0, false
}

func printQuestion(out io.Writer, snap session.Snapshot) {
	if snap.Question == nil {
		return
	}
	fmt.Fprintf(out, "\nQuestion %d of %d", snap.Index+1, snap.Total)
	if snap.Timed {
		fmt.Fprintf(out, "  [%s]", snap.Clock)
	}
	fmt.Fprintf(out, "\n%s\n\n", snap.Question.Text)
	for i, option := range snap.Question.Options {
		fmt.Fprintf(out, "%c. %s\n", 'A'+i, option.Text)
	}
	fmt.Fprintf(out, "\nYour answer (A-%c, or quit): ", 'A'+len(snap.Question.Options)-1)
}

func printFeedback(out io.Writer, snap session.Snapshot) {
	if snap.Question == nil || snap.Question.Selected == nil {
		return
	}
	selected := *snap.Question.Selected
	if snap.Question.Options[selected].Correct {
		fmt.Fprintln(out, "Correct!")
	} else {
		for i, option := range snap.Question.Options {
			if option.Correct {
				fmt.Fprintf(out, "Wrong. The answer is %c. %s\n", 'A'+i, option.Text)
			}
		}
	}
	if snap.Question.Explanation != "" {
		fmt.Fprintf(out, "Explanation: %s\n", snap.Question.Explanation)
	}
}

func printResult(out io.Writer, snap session.Snapshot) {
	result := snap.Result
	if result == nil {
		return
	}
	status := "Failed"
	if result.Passed {
		status = "Passed"
	}
	fmt.Fprintln(out)
	if result.CompletedByTimeout {
		fmt.Fprintln(out, "Time's up!")
	}
	fmt.Fprintf(out, "Score: %d/%d\n", result.Score, result.Total)
	fmt.Fprintf(out, "Status: %s\n", status)
	fmt.Fprintf(out, "Attempted: %d/%d\n", result.Attempted, result.Total)
	if snap.Timed {
		fmt.Fprintf(out, "Time taken: %s\n", session.FormatClock(result.TimeTaken))
	}
	if len(result.Review) == 0 {
		return
	}
	fmt.Fprintln(out, "\nReview:")
	for _, item := range result.Review {
		mark := "wrong"
		if item.Correct {
			mark = "correct"
		}
		fmt.Fprintf(out, "%d. %s\n", item.Index+1, item.Text)
		fmt.Fprintf(out, "   Your answer: %s (%s)\n", item.Options[item.Selected], mark)
		if !item.Correct {
			fmt.Fprintf(out, "   Correct answer: %s\n", item.Options[item.CorrectOption])
		}
		if item.Explanation != "" {
			fmt.Fprintf(out, "   %s\n", item.Explanation)
		}
	}
}

// awaitSave returns the save notification for a completed session.
func awaitSave(events <-chan session.Event, snap session.Snapshot) string {
	switch {
	case snap.Saved:
		return session.SavedMessage
	case snap.SaveError != "":
		return snap.SaveError
	}
	deadline := time.After(saveWaitTimeout)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return ""
			}
			switch ev.Type {
			case session.EventSaved, session.EventSaveFailed:
				return ev.Message
			}
		case <-deadline:
			return "Saving your result is taking longer than expected."
		}
	}
}
