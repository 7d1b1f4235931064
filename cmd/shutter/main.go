// Command shutter is a terminal image gallery that loads its collection
// incrementally as you scroll.
//
// Usage:
//
//	shutter                  Browse the gallery
//	shutter list [category]  Print a category's working set in batches
//	shutter import           Import images from the configured feeds
//	shutter events           JSONL event log viewer
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abelbrown/shutter/internal/config"
)

var (
	configPath string
	category   string
	logLevel   string
)

// rootCmd runs the gallery TUI.
var rootCmd = &cobra.Command{
	Use:   "shutter",
	Short: "Incremental terminal image gallery",
	Long: `shutter browses an image collection by category, loading it in
batches as the list scrolls. Failed batches retry automatically.

Configuration is read from ~/.shutter/config.yaml, a .env file and
SHUTTER_* environment variables.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGallery,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.Path(), "Config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&category, "category", "", "Initial category filter")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "shutter:", err)
		os.Exit(1)
	}
}
