package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/warlord-swiss/internal/database"
	"github.com/mauv0809/warlord-swiss/internal/gamesystem"
	"github.com/mauv0809/warlord-swiss/internal/metrics"
	"github.com/mauv0809/warlord-swiss/internal/processor"
	"github.com/mauv0809/warlord-swiss/internal/session"
	"github.com/mauv0809/warlord-swiss/internal/standings"
	"github.com/mauv0809/warlord-swiss/internal/store"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

var factions = []string{"Vikings", "Anglo-Danes", "Normans", "Welsh", "Scots", "Jomsvikings", "Irish", "Byzantines"}

// Simplified config loading for the script
func loadConfig() map[string]string {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}
	cfg := map[string]string{
		"DB_NAME":           "warlord.db",
		"MIGRATIONS_DIR":    "./migrations",
		"TURSO_PRIMARY_URL": "",
		"TURSO_AUTH_TOKEN":  "",
		"SEED_PLAYERS":      "9",
		"SEED_ROUNDS":       "4",
	}
	for key := range cfg {
		if value, ok := os.LookupEnv(key); ok {
			cfg[key] = value
		}
	}
	return cfg
}

func main() {
	log.Info("Starting tournament seeder...")
	cfg := loadConfig()
	players, err := strconv.Atoi(cfg["SEED_PLAYERS"])
	if err != nil || players < 2 {
		log.Fatalf("SEED_PLAYERS must be a number of at least 2, got %q", cfg["SEED_PLAYERS"])
	}
	rounds, err := strconv.Atoi(cfg["SEED_ROUNDS"])
	if err != nil || rounds < 1 {
		log.Fatalf("SEED_ROUNDS must be a positive number, got %q", cfg["SEED_ROUNDS"])
	}

	db, teardown, err := database.InitDB(cfg["DB_NAME"], cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"], cfg["MIGRATIONS_DIR"])
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	// Seeding publishes nothing and never announces to Slack.
	proc := processor.New(store.New(db), nil, metrics.NewService(), nil, gamesystem.NewRegistry(standings.DefaultScoring()))
	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	startTime := time.Now()

	org := session.Session{UserID: "seed-organizer", Role: session.RoleOrganizer}
	t, err := proc.CreateTournament(ctx, org, processor.CreateTournamentInput{
		Name:       fmt.Sprintf("Seeded Clash %s", time.Now().Format("2006-01-02 15:04")),
		GameSystem: tournament.GameSystemSaga,
		RoundCount: rounds,
	})
	if err != nil {
		log.Fatalf("Failed to create tournament: %s", err)
	}

	sessions := make(map[string]session.Session, players)
	for i := range players {
		user := session.Session{UserID: fmt.Sprintf("seed-player-%d", i+1), Role: session.RolePlayer}
		p, err := proc.RegisterParticipant(ctx, user, t.ID, processor.ParticipantInput{
			DisplayName: fmt.Sprintf("Seeder Warlord %d", i+1),
			Faction:     factions[i%len(factions)],
		})
		if err != nil {
			log.Fatalf("Failed to register participant: %s", err)
		}
		sessions[p.ID] = user
	}
	log.Info("Registered participants", "tournamentID", t.ID, "count", players)

	round, err := proc.Start(ctx, org, t.ID)
	for n := 1; ; n++ {
		if err != nil {
			log.Fatalf("Failed to pair round %d: %s", n, err)
		}
		for _, m := range round.Matches {
			if m.IsBye {
				continue
			}
			result := randomResult(rng)
			if _, err := proc.SubmitResult(ctx, sessions[m.PlayerA], t.ID, m.ID, result); err != nil {
				log.Fatalf("Failed to report match %s: %s", m.ID, err)
			}
			if _, err := proc.SubmitResult(ctx, sessions[m.PlayerB], t.ID, m.ID, result); err != nil {
				log.Fatalf("Failed to confirm match %s: %s", m.ID, err)
			}
		}
		log.Info("Played round", "round", n, "matches", len(round.Matches))
		if n == rounds {
			break
		}
		round, err = proc.AdvanceRound(ctx, org, t.ID)
	}

	rows, err := proc.Finish(ctx, org, t.ID)
	if err != nil {
		log.Fatalf("Failed to finish tournament: %s", err)
	}
	log.Info("Seeded tournament", "tournamentID", t.ID, "winner", rows[0].ParticipantID, "duration", time.Since(startTime))
}

func randomResult(rng *rand.Rand) tournament.Result {
	a := tournament.SideScore{VictoryPoints: rng.Intn(20), WarlordKilled: rng.Intn(4) == 0}
	b := tournament.SideScore{VictoryPoints: rng.Intn(20), WarlordKilled: rng.Intn(4) == 0}
	var winner tournament.Side
	switch {
	case a.VictoryPoints-b.VictoryPoints > 2:
		winner, a.MassacrePoints = tournament.SideA, a.VictoryPoints-b.VictoryPoints
	case b.VictoryPoints-a.VictoryPoints > 2:
		winner, b.MassacrePoints = tournament.SideB, b.VictoryPoints-a.VictoryPoints
	}
	return tournament.Result{Winner: winner, A: a, B: b}
}
