package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/gamegen/internal/assets"
	"github.com/vovakirdan/gamegen/internal/imagegen"
	"github.com/vovakirdan/gamegen/internal/protocol"
)

var (
	flagGenLive    bool
	flagGenOutput  string
	flagGenLibrary string
)

var generateCmd = &cobra.Command{
	Use:   "generate <game> <assetType> [prompt]",
	Short: "Resolve or generate an asset",
	Long: `Resolve an asset prompt the way the editor does.

By default the prompt is looked up in the pre-generated asset library and
the matching asset is printed as JSON. Without a prompt the known prompts
for the asset type are listed.

With --live the prompt is sent to the image model. A single image is
written to --output, or printed as a data URL. A gemSet prints the data
URLs of every gem.

Examples:
  gamegen generate flappy-bird obstacle                 # List prompts
  gamegen generate flappy-bird obstacle "red pipes"
  gamegen generate speed-runner character man
  gamegen generate flappy-bird character "blue bird" --live -o bird.png
  gamegen generate simple-match-3 gemSet "candy" --live`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&flagGenLive, "live", false, "Generate with the image model instead of the asset library")
	generateCmd.Flags().StringVarP(&flagGenOutput, "output", "o", "", "Write a live image to this PNG file")
	generateCmd.Flags().StringVar(&flagGenLibrary, "library", "", "Path to a pre-generated asset library YAML")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	gameID, assetType := args[0], args[1]
	prompt := ""
	if len(args) == 3 {
		prompt = args[2]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	if _, err := cat.MustGame(gameID); err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	if !flagGenLive {
		library, err := assets.LoadLibrary(flagGenLibrary)
		if err != nil {
			return err
		}
		if prompt == "" {
			prompts := library.Prompts(gameID, assetType)
			if len(prompts) == 0 {
				fmt.Fprintf(w, "No prompts for %s %s; the default asset is used.\n", gameID, assetType)
				return nil
			}
			fmt.Fprintf(w, "Prompts for %s %s:\n", gameID, assetType)
			for _, p := range prompts {
				fmt.Fprintf(w, "  %s\n", p)
			}
			return nil
		}
		asset, err := library.Lookup(gameID, assetType, prompt)
		if err != nil {
			return err
		}
		return printAsset(w, assetType, asset)
	}

	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("a prompt is required with --live")
	}
	if cfg.ImageAPI.URL == "" {
		return fmt.Errorf("image_api.url is not configured")
	}

	client, err := newImageClient(cfg, logger)
	if err != nil {
		return err
	}
	seed := cfg.ImageAPI.BaseSeed
	if flagSeed != 0 {
		seed = flagSeed
	}

	if assetType == "gemSet" {
		urls, err := client.GemSet(cmd.Context(), prompt, seed)
		if err != nil {
			return err
		}
		return printAsset(w, assetType, protocol.ImageSetAsset(urls))
	}

	img, err := client.Asset(cmd.Context(), assetType, prompt, seed)
	if err != nil {
		return err
	}
	if flagGenOutput != "" {
		if err := os.WriteFile(flagGenOutput, img, 0o644); err != nil {
			return fmt.Errorf("write image: %w", err)
		}
		fmt.Fprintf(w, "Wrote %s (%d bytes)\n", flagGenOutput, len(img))
		return nil
	}
	fmt.Fprintln(w, imagegen.DataURL(img))
	return nil
}

func printAsset(w io.Writer, assetType string, asset protocol.AssetValue) error {
	out, err := json.MarshalIndent(map[string]any{
		"assetType": assetType,
		"kind":      asset.Kind().String(),
		"asset":     asset,
	}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
