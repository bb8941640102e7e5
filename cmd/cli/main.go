package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yourusername/mp3-extract-go/internal/engine"
)

var (
	configPath string
	envFile    string
	verbose    bool
	rootCmd    = &cobra.Command{
		Use:   "mp3-extract",
		Short: "mp3-extract - save the audio of online videos as mp3",
		Long: `A command-line tool that resolves a video or playlist URL with yt-dlp,
downloads the audio and converts it to mp3 with ffmpeg.`,
		SilenceUsage: true,
	}
)

func init() {
	// Assigned here rather than in the literal to avoid an initialization
	// cycle (loadEnv refers to rootCmd).
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return loadEnv()
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: search ./configs, ~/.mp3-extract)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs on stderr")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(remoteCmd)
}

// loadEnv loads MP3EXTRACT_* overrides from an env file. A missing default
// file is fine; a missing explicit one is not.
func loadEnv() error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		if os.IsNotExist(err) && !rootCmd.PersistentFlags().Changed("env-file") {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}
	return nil
}

// openEngine builds the local engine with console logs kept out of the way
// of the progress output
func openEngine() (*engine.Engine, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return engine.Open(engine.Options{
		ConfigPath: configPath,
		LogLevel:   level,
		LogOutput:  "stderr",
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
