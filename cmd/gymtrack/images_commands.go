package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gymtrack/internal/logging"
)

func newImagesCommand(ctx *commandContext) *cobra.Command {
	var textfile string

	imagesCmd := &cobra.Command{
		Use:   "images",
		Short: "Cloudinary image maintenance for the exercise catalog",
	}
	imagesCmd.PersistentFlags().StringVar(&textfile, "metrics-textfile", "", "Write job metrics in Prometheus text format to this path")

	imagesCmd.AddCommand(newBuildMapCommand(ctx, &textfile))
	imagesCmd.AddCommand(newSyncCommand(ctx, &textfile))
	imagesCmd.AddCommand(newExportIDsCommand(ctx, &textfile))
	imagesCmd.AddCommand(newClearCommand(ctx, &textfile))
	return imagesCmd
}

// runImageJob opens the job environment, runs fn, and writes metrics when a
// textfile path was requested. The metrics file is written even when fn fails.
func runImageJob(cmd *cobra.Command, ctx *commandContext, textfile *string, needsCloudinary bool, fn func(*imageJob) error) error {
	job, err := ctx.openImageJob(cmd, needsCloudinary)
	if err != nil {
		return err
	}
	defer job.close()

	runErr := fn(job)
	if path := strings.TrimSpace(*textfile); path != "" {
		if err := job.metrics.WriteTextfile(path); err != nil {
			job.logger.Warn("write metrics textfile", logging.String("path", path), logging.Error(err))
		}
	}
	return runErr
}

func newBuildMapCommand(ctx *commandContext, textfile *string) *cobra.Command {
	var asJSON bool
	var showReview bool

	cmd := &cobra.Command{
		Use:   "build-map",
		Short: "Match every Cloudinary asset to an exercise and write the auto and review maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImageJob(cmd, ctx, textfile, true, func(job *imageJob) error {
				report, err := job.driver.BuildMap(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, report)
				}
				printBuildReport(cmd.OutOrStdout(), report, showReview, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the report as JSON")
	cmd.Flags().BoolVar(&showReview, "show-review", false, "List assets that need manual review")
	return cmd
}

func newSyncCommand(ctx *commandContext, textfile *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Write matched Cloudinary images back onto exercises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImageJob(cmd, ctx, textfile, true, func(job *imageJob) error {
				report, err := job.driver.Sync(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, report)
				}
				printSyncReport(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the report as JSON")
	return cmd
}

func newExportIDsCommand(ctx *commandContext, textfile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export-ids",
		Short: "Write a manual override template listing every exercise id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImageJob(cmd, ctx, textfile, false, func(job *imageJob) error {
				report, err := job.driver.ExportTemplate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Template saved to %s (%d exercises)\n", report.Path, report.Count)
				return nil
			})
		},
	}
}

func newClearCommand(ctx *commandContext, textfile *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Unset image and thumb on exercises",
		Long: "Unset image and thumb on exercises that already have an image public id.\n" +
			"With --all (or CLEAR_ALL=true) every exercise is cleared.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("all") {
				all = envBool("CLEAR_ALL")
			}
			return runImageJob(cmd, ctx, textfile, false, func(job *imageJob) error {
				report, err := job.driver.ClearImages(cmd.Context(), all)
				if err != nil {
					return err
				}
				printClearReport(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Clear every exercise, not only those with an image public id")
	return cmd
}

func envBool(key string) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && parsed
}
