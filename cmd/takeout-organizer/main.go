package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pprasanth/takeout-organizer-go/pkg/optimize"
	"github.com/pprasanth/takeout-organizer-go/pkg/organize"
)

const (
	appName = "takeout-organizer"
	version = "0.1.0"
)

// Exit codes, one per entry in the error taxonomy. Only the directory codes
// are raised at the CLI boundary today; the file and json codes are reserved.
const (
	exitSuccess = iota
	exitDirError
	exitDirWriteError
	exitFileError
	exitFileWriteError
	exitJSONError
)

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

type options struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	var showVersion bool

	rootCmd := &cobra.Command{
		Use:          appName,
		Short:        "Organize Google Takeout photos and videos",
		Long:         "Takeout Organizer reorganizes a photo/video export into a flat, date-named collection, recovering capture timestamps from embedded metadata or sidecar files, and can downsize an image collection.",
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s v%s\n", appName, version)
			if showVersion {
				return
			}
			cmd.Println("")
			cmd.Println("Use --help to see available commands and options")
		},
	}

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show the application's version and exit")
	rootCmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "enable verbose logging")

	rootCmd.AddCommand(newOrganizeCmd(opts))
	rootCmd.AddCommand(newOptimizeCmd(opts))

	return rootCmd
}

func newOrganizeCmd(opts *options) *cobra.Command {
	var inputDir, outputDir string
	var deleteOriginals bool

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Organize a takeout export into a flat, date-named collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateDirs(inputDir, outputDir); err != nil {
				return err
			}

			logger, err := newLogger(opts.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			org := organize.New(organize.Options{
				DeleteOriginals: deleteOriginals,
				Logger:          logger,
			})
			return org.Run(inputDir, outputDir)
		},
	}

	cmd.Flags().StringVar(&inputDir, "input-dir", "", "path to the input directory")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "path to the output directory")
	cmd.Flags().BoolVar(&deleteOriginals, "delete-original-files", false, "delete original files after organizing")
	_ = cmd.MarkFlagRequired("input-dir")
	_ = cmd.MarkFlagRequired("output-dir")

	return cmd
}

func newOptimizeCmd(opts *options) *cobra.Command {
	var inputDir, outputDir string
	var maxWidth, maxHeight int
	var deleteOriginals bool

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Downsize a photo collection to a maximum bounding box",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateDirs(inputDir, outputDir); err != nil {
				return err
			}

			logger, err := newLogger(opts.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return optimize.Run(inputDir, outputDir, optimize.Options{
				MaxWidth:        maxWidth,
				MaxHeight:       maxHeight,
				DeleteOriginals: deleteOriginals,
				Logger:          logger,
			})
		},
	}

	cmd.Flags().StringVar(&inputDir, "input-dir", "", "path to the input directory")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "path to the output directory")
	cmd.Flags().IntVar(&maxWidth, "max-width", optimize.DefaultMaxWidth, "maximum width of the photos")
	cmd.Flags().IntVar(&maxHeight, "max-height", optimize.DefaultMaxHeight, "maximum height of the photos")
	cmd.Flags().BoolVar(&deleteOriginals, "delete-original-files", false, "delete original files after optimizing")
	_ = cmd.MarkFlagRequired("input-dir")
	_ = cmd.MarkFlagRequired("output-dir")

	return cmd
}

// validateDirs checks the input directory, creates the output directory if
// needed, and rejects input == output.
func validateDirs(inputDir, outputDir string) error {
	if _, err := os.Stat(inputDir); err != nil {
		return &exitError{
			code: exitDirError,
			msg:  fmt.Sprintf("input directory %q does not exist", inputDir),
		}
	}

	if _, err := os.Stat(outputDir); err != nil {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return &exitError{
				code: exitDirWriteError,
				msg:  fmt.Sprintf("failed to create output directory %q: %v", outputDir, err),
			}
		}
	}

	inAbs, err := filepath.Abs(inputDir)
	if err != nil {
		return &exitError{code: exitDirError, msg: err.Error()}
	}
	outAbs, err := filepath.Abs(outputDir)
	if err != nil {
		return &exitError{code: exitDirError, msg: err.Error()}
	}
	if inAbs == outAbs {
		return &exitError{
			code: exitDirError,
			msg:  "input and output directories cannot be the same",
		}
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
