package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Panahifarah/kalpak/internal/config"
	"github.com/Panahifarah/kalpak/internal/dispatcher"
	"github.com/Panahifarah/kalpak/internal/output"
	"github.com/Panahifarah/kalpak/internal/utils"
)

var (
	urlFile    string
	inlineURLs []string
	outputDir  string
	logFile    string
	configFile string
	retries    int
	maxConns   int
	resume     bool
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:     "kalpak",
	Short:   "Kalpak downloads content from a list of URLs with bounded concurrency",
	Version: utils.Version,
	Run: func(cmd *cobra.Command, args []string) {
		settings := config.Default()
		if configFile != "" {
			settings.ApplyOverrides(configFile)
		}
		// Explicit flags win over config file values.
		flags := cmd.Flags()
		if flags.Changed("retries") {
			settings.Retries = retries
		}
		if flags.Changed("max-connections") {
			settings.MaxConnections = maxConns
		}
		if flags.Changed("resume") {
			settings.Resume = resume
		}
		if flags.Changed("dest") {
			settings.OutputDir = outputDir
		}
		if flags.Changed("log") {
			settings.LogFile = logFile
		}

		if err := settings.Validate(); err != nil {
			output.PrintError(fmt.Sprintf("Invalid configuration: %v", err))
			os.Exit(1)
		}
		if err := utils.InitLogger(debug, settings.LogFile); err != nil {
			output.PrintError(fmt.Sprintf("Failed to set up logging: %v", err))
			os.Exit(1)
		}

		if urlFile != "" && len(inlineURLs) > 0 {
			output.PrintError("Cannot specify --file and --url together, choose one")
			os.Exit(1)
		}
		var urls []string
		switch {
		case urlFile != "":
			var err error
			urls, err = config.ReadURLFile(urlFile)
			if err != nil {
				logger := utils.GetLogger("main")
				logger.Error().Err(err).Str("file", urlFile).Msg("Error reading URLs from file")
				output.PrintError(fmt.Sprintf("Error reading URLs from file: %v", err))
				os.Exit(1)
			}
		case len(inlineURLs) > 0:
			urls = inlineURLs
		default:
			output.PrintError("No URLs provided")
			os.Exit(1)
		}

		dispatcher.Run(cmd.Context(), urls, settings)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&urlFile, "file", "f", "", "Input JSON file with a top-level 'urls' array")
	rootCmd.Flags().StringArrayVarP(&inlineURLs, "url", "u", []string{}, "Inline URL to download; can be specified multiple times")
	rootCmd.Flags().StringVarP(&outputDir, "dest", "d", ".", "Output directory for downloaded content")
	rootCmd.Flags().StringVarP(&logFile, "log", "l", config.DefaultLogPath(), "Log file path")
	rootCmd.Flags().IntVarP(&retries, "retries", "r", 3, "Number of attempts per URL")
	rootCmd.Flags().IntVarP(&maxConns, "max-connections", "m", 10, "Maximum number of concurrent connections")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")

	// flags without shorthand
	rootCmd.Flags().BoolVar(&resume, "resume", false, "Request the full resource via a range header")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
