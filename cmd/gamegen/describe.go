package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/gamegen/internal/assets"
	"github.com/vovakirdan/gamegen/internal/editor"
	"github.com/vovakirdan/gamegen/internal/protocol"
)

var flagDescribeLibrary string

var describeCmd = &cobra.Command{
	Use:   "describe <game> <description>",
	Short: "Turn a free-form description into settings and asset prompts",
	Long: `Send a description to the language model, apply the parsed
difficulty and settings to a fresh editor session, and resolve every asset
prompt against the asset library.

Examples:
  gamegen describe flappy-bird "a hard game with a red bird over the sea"
  gamegen describe crossy-road "slow cars and a chicken"`,
	Args: cobra.ExactArgs(2),
	RunE: runDescribe,
}

func init() {
	describeCmd.Flags().StringVar(&flagDescribeLibrary, "library", "", "Path to a pre-generated asset library YAML")
}

type describeOutput struct {
	Difficulty string                         `json:"difficulty,omitempty"`
	Settings   map[string]float64             `json:"settings"`
	Prompts    map[string]string              `json:"prompts"`
	Assets     map[string]protocol.AssetValue `json:"assets"`
}

func runDescribe(cmd *cobra.Command, args []string) error {
	gameID, text := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if cfg.LLM.URL == "" {
		return fmt.Errorf("llm.url is not configured")
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	gameCfg, err := cat.MustGame(gameID)
	if err != nil {
		return err
	}
	library, err := assets.LoadLibrary(flagDescribeLibrary)
	if err != nil {
		return err
	}

	parsed, err := newLLMClient(cfg, logger).Parse(cmd.Context(), text, gameID)
	if err != nil {
		return err
	}

	session := editor.NewSession(gameCfg, logger)
	prompts := session.ApplyPrompt(parsed)

	out := describeOutput{
		Difficulty: string(session.Difficulty()),
		Settings:   session.Settings(),
		Prompts:    prompts,
		Assets:     make(map[string]protocol.AssetValue, len(prompts)),
	}

	types := make([]string, 0, len(prompts))
	for t := range prompts {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		asset, err := library.Lookup(gameID, t, prompts[t])
		if errors.Is(err, assets.ErrNotFound) {
			logger.Warn("no library asset", "type", t, "prompt", prompts[t])
			continue
		}
		if err != nil {
			return err
		}
		out.Assets[t] = asset
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
