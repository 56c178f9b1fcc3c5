// Command presets checks and lists the board presets in a configs directory.
//
//	presets validate [dir]   validate every *.json preset, exit 1 if any is invalid
//	presets list [dir]       print each preset's board size and speed
//
// The directory defaults to "configs".
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

const defaultDir = "configs"

var errInvalidPresets = errors.New("some presets have errors")

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Messages holds informational lines; otherwise it
// holds the errors that were found.
type ValidationResult struct {
	File     string
	Valid    bool
	Messages []string
	Config   *engine.GameConfig
}

// validateConfig loads and validates a single preset file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:     filepath.Base(filePath),
		Valid:    true,
		Messages: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Messages = append(result.Messages, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var config engine.GameConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		result.Valid = false
		result.Messages = append(result.Messages, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.Valid = false
		result.Messages = append(result.Messages, strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}
	result.Config = &config

	grid := config.Grid()
	result.Messages = append(result.Messages,
		fmt.Sprintf("✓ Grid: %dx%d (%d cells)", grid.Cols, grid.Rows, grid.Area()),
		fmt.Sprintf("✓ Snake: length %d, head at %s", config.InitialLength, grid.Center()),
		fmt.Sprintf("✓ Speed: %dms down to %dms after %d foods",
			config.InitialIntervalMs, config.MinIntervalMs, foodsToMinimum(config)),
	)

	stem := strings.TrimSuffix(result.File, filepath.Ext(result.File))
	if config.Name != stem {
		result.Messages = append(result.Messages,
			fmt.Sprintf("⚠ Name %q differs from file name; apply it as %q", config.Name, stem))
	}

	return result
}

// foodsToMinimum counts the speed-ups before the interval reaches its floor.
func foodsToMinimum(config engine.GameConfig) int {
	return engine.SpeedLevel(config, config.MinIntervalMs) - 1
}

func presetFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("error finding config files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no presets found in %s", dir)
	}
	return files, nil
}

// runValidate prints one report per file and fails if any file is invalid.
func runValidate(dir string, w io.Writer) error {
	files, err := presetFiles(dir)
	if err != nil {
		return err
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Messages {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, msg := range result.Messages {
				fmt.Fprintln(w, "  ❌ "+msg)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		fmt.Fprintln(w, "❌ Some configurations have errors")
		return errInvalidPresets
	}
	fmt.Fprintln(w, "✅ All configurations are valid!")
	return nil
}

// runList prints a table of the valid presets; invalid files are marked.
func runList(dir string, w io.Writer) error {
	files, err := presetFiles(dir)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRESET\tGRID\tSTART\tMIN\tSPEED-UP\tLENGTH\tDESCRIPTION")
	for _, file := range files {
		result := validateConfig(file)
		stem := strings.TrimSuffix(result.File, filepath.Ext(result.File))
		if !result.Valid {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\tinvalid: %s\n", stem, result.Messages[0])
			continue
		}
		c := result.Config
		fmt.Fprintf(tw, "%s\t%dx%d\t%dms\t%dms\tx%.2f\t%d\t%s\n",
			stem, c.Cols, c.Rows, c.InitialIntervalMs, c.MinIntervalMs, c.SpeedMultiplier, c.InitialLength, c.Description)
	}
	return tw.Flush()
}

func dirArg(cmd *cli.Command) string {
	if dir := cmd.Args().First(); dir != "" {
		return dir
	}
	return defaultDir
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "presets",
		Usage: "check and list snake board presets",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "validate every preset in a directory",
				ArgsUsage: "[dir]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runValidate(dirArg(cmd), cmd.Root().Writer)
				},
			},
			{
				Name:      "list",
				Usage:     "print the presets in a directory",
				ArgsUsage: "[dir]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runList(dirArg(cmd), cmd.Root().Writer)
				},
			},
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
