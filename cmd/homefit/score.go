package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suhasramanand/homefit-sub000/internal/scoring"
	"github.com/suhasramanand/homefit-sub000/internal/types"
)

var (
	scoreListingPath string
	scorePrefsPath   string
	scoreJSON        bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a listing against a preference set",
	Long:  `Score reads a listing and a preference set from JSON files and prints the 0-100 match score with its per-criterion breakdown.`,
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreListingPath, "listing", "", "Path to listing JSON file (required)")
	scoreCmd.Flags().StringVar(&scorePrefsPath, "preferences", "", "Path to preference set JSON file (required)")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print the full result as JSON")
	_ = scoreCmd.MarkFlagRequired("listing")
	_ = scoreCmd.MarkFlagRequired("preferences")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(_ *cobra.Command, _ []string) error {
	listing, prefs, err := loadPair(scoreListingPath, scorePrefsPath)
	if err != nil {
		return err
	}

	result := scoring.Score(*listing, *prefs)

	if scoreJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Printf("%s: %d/100\n", listing.Title, result.Value)
	for _, c := range result.Breakdown {
		fmt.Printf("  [%-8s] %-10s %s\n", c.Classification, c.Criterion, c.Detail)
	}
	return nil
}

// loadPair reads a listing and a preference set from JSON files.
func loadPair(listingPath, prefsPath string) (*types.Listing, *types.PreferenceSet, error) {
	var listing types.Listing
	if err := readJSON(listingPath, &listing); err != nil {
		return nil, nil, fmt.Errorf("failed to load listing: %w", err)
	}
	var prefs types.PreferenceSet
	if err := readJSON(prefsPath, &prefs); err != nil {
		return nil, nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return &listing, &prefs, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
