package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suhasramanand/homefit-sub000/internal/explain"
	"github.com/suhasramanand/homefit-sub000/internal/llm"
	"github.com/suhasramanand/homefit-sub000/internal/scoring"
)

var (
	explainListingPath string
	explainPrefsPath   string
	explainOffline     bool
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Score a listing and explain the match",
	Long:  `Explain scores a listing against a preference set and prints a natural-language rationale. With GEMINI_API_KEY set the rationale is generated; otherwise the deterministic fallback is used.`,
	RunE:  runExplain,
}

func init() {
	explainCmd.Flags().StringVar(&explainListingPath, "listing", "", "Path to listing JSON file (required)")
	explainCmd.Flags().StringVar(&explainPrefsPath, "preferences", "", "Path to preference set JSON file (required)")
	explainCmd.Flags().BoolVar(&explainOffline, "offline", false, "Skip the generative path even when an API key is set")
	_ = explainCmd.MarkFlagRequired("listing")
	_ = explainCmd.MarkFlagRequired("preferences")
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, _ []string) error {
	listing, prefs, err := loadPair(explainListingPath, explainPrefsPath)
	if err != nil {
		return err
	}
	score := scoring.Score(*listing, *prefs)

	var client llm.Client
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" && !explainOffline {
		client, err = llm.NewClient(cmd.Context(), nil, apiKey)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer func() { _ = client.Close() }()
	}

	svc, err := explain.NewService(client, explain.NewRateLimitState(0))
	if err != nil {
		return err
	}
	expl := svc.Explain(cmd.Context(), *listing, *prefs, score)

	fmt.Printf("%s: %d/100 (%s)\n\n%s\n", listing.Title, score.Value, expl.Source, expl.Summary)
	for _, h := range expl.Highlights {
		fmt.Printf("  [%-8s] %s\n", h.Kind, h.Text)
	}
	return nil
}
