package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/pingpong-elo/internal/config"
	"github.com/mauv0809/pingpong-elo/internal/database"
	"github.com/mauv0809/pingpong-elo/internal/engine"
	"github.com/mauv0809/pingpong-elo/internal/league"
	"github.com/mauv0809/pingpong-elo/internal/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	numPlayers = 12
	numMatches = 2000
	batchSize  = 100 // Record 100 matches per transaction
)

func main() {
	log.Info("Starting database seeder...")
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}

	db, teardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	ctx := context.Background()
	eng := engine.New(league.New(db), metrics.NewMock(), engine.Options{
		StartingRating: cfg.Rating.StartingRating,
		Policy:         cfg.Rating.Policy(),
		Order:          cfg.Rating.Order,
	})

	players := make([]string, numPlayers)
	for i := range players {
		players[i] = fmt.Sprintf("seeder-%02d", i+1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range players {
		g.Go(func() error {
			_, err := eng.RegisterPlayer(gctx, league.Player{ID: id, Description: "Seeded player"})
			if err != nil && !errors.Is(err, league.ErrAlreadyExists) {
				return fmt.Errorf("register %s: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("Failed to register players: %s", err)
	}
	log.Info("Ensured seeded players exist.", "count", len(players))

	log.Info("Preparing to record dummy matches...", "total", numMatches, "batch_size", batchSize)
	startTime := time.Now()
	base := time.Now().Add(-365 * 24 * time.Hour)

	batch := make([]league.MatchFields, 0, batchSize)
	for i := 0; i < numMatches; i++ {
		p1 := players[i%numPlayers]
		p2 := players[(i+1+rand.Intn(numPlayers-1))%numPlayers]
		winner := p1
		if rand.Intn(2) == 0 {
			winner = p2
		}
		playedAt := base.Add(time.Duration(i) * time.Hour)
		batch = append(batch, league.MatchFields{
			Player1:  p1,
			Player2:  p2,
			Winner:   winner,
			Season:   1 + i*4/numMatches,
			PlayedAt: &playedAt,
		})

		if len(batch) == batchSize || i+1 == numMatches {
			if _, err := eng.RecordMatches(ctx, batch); err != nil {
				log.Fatalf("Failed to record batch: %s", err)
			}
			batch = batch[:0]
			log.Info("Recorded batch", "completed", i+1, "total", numMatches)
		}
	}
	log.Info("Successfully recorded all dummy matches.", "duration", time.Since(startTime))

	// Incremental updates must agree with a full replay.
	preview, err := eng.Preview(ctx)
	if err != nil {
		log.Fatalf("Failed to preview recalculation: %s", err)
	}
	stored, err := eng.Players(ctx)
	if err != nil {
		log.Fatalf("Failed to list players: %s", err)
	}
	drift := 0
	for _, p := range stored {
		want := preview.States[p.ID]
		if p.Rating != want.Rating || p.GamesPlayed != want.GamesPlayed {
			drift++
			log.Warn("Rating drift", "player", p.ID, "stored", p.Rating, "replayed", want.Rating)
		}
	}
	if drift > 0 {
		log.Fatalf("Found %d players whose stored rating differs from a full replay", drift)
	}
	log.Info("Stored ratings match a full replay.", "players", len(stored), "anomalies", len(preview.Anomalies))
}
