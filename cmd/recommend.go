package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"AutoQFM/cache"
	"AutoQFM/config"
	"AutoQFM/core/analytics"
	"AutoQFM/core/provider"
	"AutoQFM/core/recommend"
	"AutoQFM/core/resolver"
	"AutoQFM/logger"
	"AutoQFM/model"

	"github.com/spf13/cobra"
)

var (
	recommendTitle  string
	recommendArtist string
	recommendSize   int
)

// recommendCmd runs one recommendation flow from the command line without
// starting the server. Useful for poking at the resolver and filter.
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Generate one recommendation batch for a seed track",
	Run: func(cmd *cobra.Command, args []string) {
		if recommendTitle == "" {
			log.Fatal("--title is required")
		}

		cfg := config.Load()
		logger.InitLogger(logger.Config{Level: logger.LogLevel(cfg.LogLevel)})

		providerClient := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderTimeout)
		orchestrator := recommend.NewOrchestrator(recommend.Deps{
			Resolver:    resolver.New(providerClient),
			QueryCache:  cache.NewQueryCache(cfg.QueryCacheMaxSize, cfg.QueryCacheTTL, nil),
			Session:     analytics.New(nil),
			Algorithmic: recommend.NewAlgorithmicGenerator(),
			TargetSize:  recommendSize,
		})

		resp := orchestrator.Recommend(context.Background(), model.RecommendRequest{
			CurrentTrack: model.Track{
				ID:     "cli-seed",
				Title:  recommendTitle,
				Artist: recommendArtist,
			},
		})

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			log.Fatalf("Failed to encode response: %v", err)
		}
		fmt.Printf("source=%s diversity=%s tracks=%d\n", resp.Source, resp.Diversity, len(resp.Tracks))
	},
}

func init() {
	recommendCmd.Flags().StringVar(&recommendTitle, "title", "", "Seed track title")
	recommendCmd.Flags().StringVar(&recommendArtist, "artist", "", "Seed track artist")
	recommendCmd.Flags().IntVar(&recommendSize, "size", 20, "Target batch size")
	rootCmd.AddCommand(recommendCmd)
}
