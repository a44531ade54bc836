package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"study-quiz-service/internal/domain"
)

type quizLister interface {
	ListQuizzes(ctx context.Context, subjectID string) ([]domain.Quiz, error)
}

type staticLister map[string]domain.Quiz

func (s staticLister) ListQuizzes(_ context.Context, subjectID string) ([]domain.Quiz, error) {
	quizzes := make([]domain.Quiz, 0, len(s))
	for _, quiz := range s {
		if subjectID == "" || quiz.SubjectID == subjectID {
			quizzes = append(quizzes, quiz)
		}
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].ID < quizzes[j].ID })
	return quizzes, nil
}

// NewQuizzesCmd lists quizzes from the backend API, or the bundled samples
// when no backend is configured.
func NewQuizzesCmd(configPath *string) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "quizzes",
		Short: "List available quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, log, err := loadConfig(*configPath, "warn")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			var lister quizLister = staticLister(sampleQuizzes())
			if cfg.Backend.BaseURL != "" {
				d, err := buildDeps(ctx, cfg, log)
				if err != nil {
					return err
				}
				defer d.Close()
				lister = d.backend
			}
			return runListQuizzes(ctx, cmd.OutOrStdout(), lister, subject)
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "only list quizzes of this subject")
	return cmd
}

func runListQuizzes(ctx context.Context, out io.Writer, lister quizLister, subject string) error {
	quizzes, err := lister.ListQuizzes(ctx, subject)
	if err != nil {
		return err
	}
	if len(quizzes) == 0 {
		fmt.Fprintln(out, "No quizzes.")
		return nil
	}

	fmt.Fprintln(out, "Quizzes:")
	for idx, quiz := range quizzes {
		duration := "untimed"
		if quiz.Timed() {
			duration = fmt.Sprintf("%d min", quiz.DurationMinutes)
		}
		fmt.Fprintf(out, "%d. %s  %s (%d questions, %s)\n",
			idx+1,
			quiz.ID,
			quiz.Title,
			len(quiz.Questions),
			duration,
		)
	}
	return nil
}
