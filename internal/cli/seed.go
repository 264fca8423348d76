package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"mathflix/internal/app"
	"mathflix/internal/config"
	"mathflix/internal/domain"
)

// NewSeedCmd loads the demo quiz catalog into the configured store.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the configured store with the demo quiz catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Storage.Backend == "postgres" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	created, err := seedCatalog(ctx, app.NewQuizService(ctx, store))
	if err != nil {
		return err
	}
	log.Printf("seeded %d quizzes", created)
	return nil
}

// seedCatalog creates the sample quizzes if the catalog is empty. Quizzes
// are authored by the demo parent, assigned to the demo child and published
// through the regular catalog operations.
func seedCatalog(ctx context.Context, quizzes *app.QuizService) (int, error) {
	if len(quizzes.List()) > 0 {
		return 0, nil
	}

	const (
		demoParentID = "2"
		demoChildID  = "3"
	)

	created := 0
	for _, input := range sampleQuizzes(demoParentID) {
		quiz, err := quizzes.Create(ctx, input)
		if err != nil {
			return created, fmt.Errorf("create %q: %w", input.Title, err)
		}
		if _, err := quizzes.Assign(ctx, quiz.ID, demoChildID); err != nil {
			return created, fmt.Errorf("assign %q: %w", input.Title, err)
		}
		if _, err := quizzes.Publish(ctx, quiz.ID); err != nil {
			return created, fmt.Errorf("publish %q: %w", input.Title, err)
		}
		created++
	}
	return created, nil
}

func sampleQuizzes(createdBy string) []app.QuizInput {
	return []app.QuizInput{
		{
			Title:       "Addition Basics",
			Description: "Single-digit addition practice",
			Duration:    5,
			Subject:     "Math",
			Difficulty:  domain.DifficultyEasy,
			CreatedBy:   createdBy,
			Questions: []domain.Question{
				{
					ID:            "q1",
					Prompt:        "What is 2 + 2?",
					Options:       []string{"3", "4", "5", "6"},
					CorrectAnswer: 1,
					Explanation:   "2 + 2 = 4",
					Points:        10,
				},
				{
					ID:            "q2",
					Prompt:        "What is 7 + 5?",
					Options:       []string{"11", "13", "12", "10"},
					CorrectAnswer: 2,
					Points:        10,
				},
				{
					ID:            "q3",
					Prompt:        "What is 9 + 6?",
					Options:       []string{"15", "14", "16", "13"},
					CorrectAnswer: 0,
					Points:        10,
				},
				{
					ID:            "q4",
					Prompt:        "What is 8 + 8?",
					Options:       []string{"14", "18", "15", "16"},
					CorrectAnswer: 3,
					Points:        10,
				},
			},
		},
		{
			Title:       "Multiplication Tables",
			Description: "Times tables up to 12",
			Duration:    10,
			Subject:     "Math",
			Difficulty:  domain.DifficultyMedium,
			CreatedBy:   createdBy,
			Questions: []domain.Question{
				{
					ID:            "q1",
					Prompt:        "What is 6 x 7?",
					Options:       []string{"42", "36", "48", "40"},
					CorrectAnswer: 0,
					Points:        10,
				},
				{
					ID:            "q2",
					Prompt:        "What is 9 x 12?",
					Options:       []string{"96", "108", "112", "104"},
					CorrectAnswer: 1,
					Points:        10,
				},
				{
					ID:            "q3",
					Prompt:        "What is 8 x 11?",
					Options:       []string{"80", "96", "88", "98"},
					CorrectAnswer: 2,
					Points:        10,
				},
			},
		},
	}
}
