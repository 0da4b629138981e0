package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mauv0809/warlord-swiss/internal/processor"
	"github.com/mauv0809/warlord-swiss/internal/session"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd, metricsCmd, gameSystemsCmd, tokenCmd, tournamentsCmd, showCmd, updateCmd,
		createCmd, registerCmd, startCmd, advanceCmd, previewCmd, finishCmd, standingsCmd, reportCmd, confirmCmd)

	tokenCmd.Flags().String("role", string(session.RolePlayer), "Role of the session: organizer or player")
	tokenCmd.Flags().Duration("ttl", 12*time.Hour, "How long the token stays valid")

	createCmd.Flags().String("system", string(tournament.GameSystemSaga), "Game system")
	createCmd.Flags().Int("rounds", 3, "Number of rounds")

	updateCmd.Flags().String("name", "", "New tournament name")
	updateCmd.Flags().Int("rounds", 0, "New number of rounds")

	registerCmd.Flags().String("user", "", "User id of the participant")
	registerCmd.Flags().String("faction", "", "Faction played")
	registerCmd.Flags().String("club", "", "Club of the participant")

	reportCmd.Flags().String("winner", "", "Winning side: a, b or empty for a draw")
	reportCmd.Flags().Int("vp-a", 0, "Victory points of side a")
	reportCmd.Flags().Int("vp-b", 0, "Victory points of side b")
	reportCmd.Flags().Int("mp-a", 0, "Massacre points of side a")
	reportCmd.Flags().Int("mp-b", 0, "Massacre points of side b")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil)
	},
}

var gameSystemsCmd = &cobra.Command{
	Use:   "game-systems",
	Short: "List the supported game systems",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/game-systems", nil)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue a session token signed with SESSION_SECRET",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		secret := os.Getenv("SESSION_SECRET")
		if secret == "" {
			return fmt.Errorf("SESSION_SECRET is not set")
		}
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		raw, err := session.NewIssuer(secret, ttl).Issue(session.Session{UserID: args[0], Role: session.Role(role)})
		if err != nil {
			return err
		}
		fmt.Println(raw)
		return nil
	},
}

var tournamentsCmd = &cobra.Command{
	Use:   "tournaments",
	Short: "List tournaments",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/tournaments", nil)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <tournament-id>",
	Short: "Show a tournament with its rounds and standings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/tournaments/"+args[0], nil)
	},
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a tournament",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		system, _ := cmd.Flags().GetString("system")
		rounds, _ := cmd.Flags().GetInt("rounds")
		return performRequest(http.MethodPost, "/tournaments", processor.CreateTournamentInput{
			Name:       args[0],
			GameSystem: tournament.GameSystem(system),
			RoundCount: rounds,
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <tournament-id>",
	Short: "Rename a tournament or change its round count",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in processor.UpdateTournamentInput
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			in.Name = &name
		}
		if cmd.Flags().Changed("rounds") {
			rounds, _ := cmd.Flags().GetInt("rounds")
			in.RoundCount = &rounds
		}
		return performRequest(http.MethodPatch, "/tournaments/"+args[0], in)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <tournament-id> <display-name>",
	Short: "Register a participant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		faction, _ := cmd.Flags().GetString("faction")
		club, _ := cmd.Flags().GetString("club")
		return performRequest(http.MethodPost, "/tournaments/"+args[0]+"/participants", processor.ParticipantInput{
			UserID:      user,
			DisplayName: args[1],
			Faction:     faction,
			Club:        club,
		})
	},
}

var startCmd = &cobra.Command{
	Use:   "start <tournament-id>",
	Short: "Start a tournament and pair round one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/tournaments/"+args[0]+"/start", nil)
	},
}

var advanceCmd = &cobra.Command{
	Use:   "advance <tournament-id>",
	Short: "Pair the next round",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/tournaments/"+args[0]+"/advance", nil)
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <tournament-id>",
	Short: "Preview the next round's pairings without saving them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/tournaments/"+args[0]+"/pairings/preview", nil)
	},
}

var finishCmd = &cobra.Command{
	Use:   "finish <tournament-id>",
	Short: "Finish a tournament and freeze its standings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/tournaments/"+args[0]+"/finish", nil)
	},
}

var standingsCmd = &cobra.Command{
	Use:   "standings <tournament-id>",
	Short: "Show the standings of a tournament",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/tournaments/"+args[0]+"/standings", nil)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <tournament-id> <match-id>",
	Short: "Report the result of your match",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		winner, _ := cmd.Flags().GetString("winner")
		vpA, _ := cmd.Flags().GetInt("vp-a")
		vpB, _ := cmd.Flags().GetInt("vp-b")
		mpA, _ := cmd.Flags().GetInt("mp-a")
		mpB, _ := cmd.Flags().GetInt("mp-b")
		return performRequest(http.MethodPost, "/tournaments/"+args[0]+"/matches/"+args[1]+"/report", tournament.Result{
			Winner: tournament.Side(winner),
			A:      tournament.SideScore{VictoryPoints: vpA, MassacrePoints: mpA},
			B:      tournament.SideScore{VictoryPoints: vpB, MassacrePoints: mpB},
		})
	},
}

var confirmCmd = &cobra.Command{
	Use:   "confirm <tournament-id> <match-id>",
	Short: "Confirm the result your opponent reported",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/tournaments/"+args[0]+"/matches/"+args[1]+"/confirm", nil)
	},
}

func performRequest(method, endpoint string, payload any) error {
	url := host + endpoint
	if dryRun {
		url += "?dry_run=true"
	}
	fmt.Printf("Making %s request to %s\n", method, url)

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	return nil
}
