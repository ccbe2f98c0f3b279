package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	season       int
	filterSeason int
	archived     string
	playedAt     string
	dryRun       bool
	elo          int
	desc         string
	doubles      bool
	archiveNew   bool
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(addPlayerCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(editMatchCmd)
	rootCmd.AddCommand(deleteMatchCmd)
	rootCmd.AddCommand(recalculateCmd)
	rootCmd.AddCommand(vacuumCmd)

	addPlayerCmd.Flags().IntVar(&elo, "elo", 0, "Initial rating (reset by the next recalculation)")
	addPlayerCmd.Flags().StringVar(&desc, "description", "", "Free-form player description")

	matchesCmd.Flags().IntVar(&filterSeason, "season", 0, "Only list games from this season")
	matchesCmd.Flags().StringVar(&archived, "archived", "", "Filter on the archived flag (true|false)")

	for _, cmd := range []*cobra.Command{recordCmd, editMatchCmd} {
		cmd.Flags().IntVar(&season, "season", 1, "Season the game belongs to")
		cmd.Flags().StringVar(&playedAt, "played-at", "", "When the game was played (RFC 3339)")
		cmd.Flags().BoolVar(&doubles, "doubles", false, "Mark the game as doubles")
		cmd.Flags().BoolVar(&archiveNew, "archived", false, "Mark the game as archived")
	}

	recalculateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Replay the ledger without persisting ratings")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Dump players, non-archived games and match counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/data")
	},
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List players by rating",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/players")
	},
}

var playerCmd = &cobra.Command{
	Use:   "player <username>",
	Short: "Show a single player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/players/" + url.PathEscape(args[0]))
	},
}

var addPlayerCmd = &cobra.Command{
	Use:   "add-player <username>",
	Short: "Register a new player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/players", map[string]any{
			"username":    args[0],
			"elo":         elo,
			"description": desc,
		})
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List the match ledger in replay order",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if filterSeason > 0 {
			q.Set("season", strconv.Itoa(filterSeason))
		}
		if archived != "" {
			q.Set("archived", archived)
		}
		endpoint := "/matches"
		if len(q) > 0 {
			endpoint += "?" + q.Encode()
		}
		return performGetRequest(endpoint)
	},
}

var recordCmd = &cobra.Command{
	Use:   "record <p1> <p2> <winner>",
	Short: "Record a game and update both ratings",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := gameBody(args)
		if err != nil {
			return err
		}
		return performRequest(http.MethodPost, "/matches", body)
	},
}

var editMatchCmd = &cobra.Command{
	Use:   "edit-match <id> <p1> <p2> <winner>",
	Short: "Replace a recorded game and recalculate all ratings",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := gameBody(args[1:])
		if err != nil {
			return err
		}
		return performRequest(http.MethodPut, "/matches/"+args[0], body)
	},
}

var deleteMatchCmd = &cobra.Command{
	Use:   "delete-match <id>",
	Short: "Delete a recorded game and recalculate all ratings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodDelete, "/matches/"+args[0], nil)
	},
}

var recalculateCmd = &cobra.Command{
	Use:   "recalculate",
	Short: "Replay the whole ledger from the starting rating",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/admin/recalculate"
		if dryRun {
			endpoint += "?dry_run=true"
		}
		return performRequest(http.MethodPost, endpoint, nil)
	},
}

var vacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Compact the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/admin/vacuum", nil)
	},
}

func gameBody(args []string) (map[string]any, error) {
	body := map[string]any{
		"p1":       args[0],
		"p2":       args[1],
		"winner":   args[2],
		"season":   season,
		"doubles":  doubles,
		"archived": archiveNew,
	}
	if playedAt != "" {
		t, err := time.Parse(time.RFC3339, playedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid --played-at: %w", err)
		}
		body["date_played"] = t.Unix()
	}
	return body, nil
}

func performGetRequest(endpoint string) error {
	return performRequest(http.MethodGet, endpoint, nil)
}

func performRequest(method, endpoint string, payload any) error {
	target := host + endpoint
	fmt.Printf("Making %s request to %s\n", method, target)

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
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
