package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mathflix/internal/app"
	"mathflix/internal/config"
	"mathflix/internal/domain"
)

// NewDemoCmd runs a scripted end-to-end pass through the engine: log in as
// the demo child, pick the first assigned quiz and take it with alternating
// right and wrong answers. Useful as a smoke check against a real backend.
func NewDemoCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Take a seeded quiz as the demo child and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), *configPath)
		},
	}
}

func runDemo(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	auth := app.NewAuthService(ctx, store)
	quizzes := app.NewQuizService(ctx, store)
	if _, err := seedCatalog(ctx, quizzes); err != nil {
		return err
	}

	child, err := auth.Login(ctx, domain.Credentials{Username: "child", Password: "child123"})
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", child.Name, child.Role)

	visible := quizzes.ForChild(child.ID)
	if len(visible) == 0 {
		return fmt.Errorf("no published quizzes assigned to %s", child.ID)
	}
	for _, quiz := range visible {
		fmt.Printf("assigned: %s (%s, %d questions, %d min)\n", quiz.Title, quiz.Difficulty, len(quiz.Questions), quiz.Duration)
	}

	quiz := visible[0]
	runner, err := quizzes.StartAttempt(quiz.ID, child.ID)
	if err != nil {
		return err
	}
	stop := runner.RunTimer(ctx)
	defer stop()

	for done := false; !done; {
		question, idx := runner.CurrentQuestion()
		// Alternate right and wrong selections so the result shows a real spread.
		option := question.CorrectAnswer
		if idx%2 == 1 {
			option = (question.CorrectAnswer + 1) % len(question.Options)
		}
		answer, err := runner.Answer(option)
		if err != nil {
			return err
		}
		fmt.Printf("Q%d %q -> %q (correct=%v)\n", idx+1, question.Prompt, question.Options[option], answer.IsCorrect)

		time.Sleep(app.FeedbackDelay)
		if _, done, err = runner.AdvanceOrSubmit(ctx); err != nil {
			return err
		}
	}

	attempt := runner.Attempt()
	fmt.Printf("score %d%% (%d/%d correct) in %ds\n",
		attempt.Score, attempt.CorrectAnswers, attempt.TotalQuestions, attempt.TimeTaken)
	auth.Logout(ctx)
	return nil
}
