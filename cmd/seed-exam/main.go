package main

import (
	"context"
	"fmt"
	"time"

	"github.com/examply/proctor-backend/internal/config"
	"github.com/examply/proctor-backend/internal/database"
	"github.com/examply/proctor-backend/internal/logger"
	"github.com/examply/proctor-backend/internal/model"
	"github.com/examply/proctor-backend/internal/repository"
	"github.com/examply/proctor-backend/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	examRepo := repository.NewExamRepository(pool)
	examService := service.NewExamService(examRepo, rdb, log)

	fmt.Println("=== Seeding Demo Exam ===")

	exam, err := examService.Create(ctx, &model.CreateExamRequest{
		Title:           "General Knowledge Assessment",
		DurationMinutes: 90,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create exam")
	}
	fmt.Printf("Created exam %s (%s)\n", exam.Title, exam.ID)

	variants := []string{"Model A", "Model B"}
	questionSets := map[string][]string{
		"Model A": {
			"Explain the difference between latency and throughput.",
			"What does an index speed up, and what does it slow down?",
			"Describe one scenario where eventual consistency is acceptable.",
			"Why are retries dangerous without idempotency?",
			"What is the purpose of a health check endpoint?",
		},
		"Model B": {
			"Explain the difference between concurrency and parallelism.",
			"What does a cache speed up, and what can it get wrong?",
			"Describe one scenario where strong consistency is required.",
			"Why are timeouts necessary on outbound network calls?",
			"What is the purpose of structured logging?",
		},
	}

	for _, name := range variants {
		variant, err := examService.AddVariant(ctx, exam.ID, &model.CreateVariantRequest{Name: name})
		if err != nil {
			log.Fatal().Err(err).Str("variant", name).Msg("Failed to create variant")
		}
		fmt.Printf("Created variant '%s' with ID: %d\n", variant.Name, variant.ID)

		for i, text := range questionSets[name] {
			_, err := examService.AddQuestion(ctx, exam.ID, variant.ID, &model.AddQuestionRequest{
				Text:     text,
				OrderNum: i + 1,
			})
			if err != nil {
				log.Fatal().Err(err).Str("variant", name).Int("order", i+1).Msg("Failed to create question")
			}
		}
		fmt.Printf("Added %d questions to '%s'\n", len(questionSets[name]), name)
	}

	if err := examService.Activate(ctx, exam.ID); err != nil {
		log.Fatal().Err(err).Msg("Failed to activate exam")
	}

	fmt.Printf("\nSuccess! Exam '%s' is now active with %d variants.\n", exam.Title, len(variants))
}
