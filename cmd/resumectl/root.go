package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"resume-ranker/internal/bootstrap"
	"resume-ranker/internal/extract"
	"resume-ranker/internal/pipeline"
	"resume-ranker/internal/scoring"
	"resume-ranker/internal/shared/config"
	"resume-ranker/internal/shared/storage/db"
	"resume-ranker/internal/shared/telemetry"
)

type metaFlags struct {
	studentID      string
	batch          string
	department     string
	graduationYear int
}

func (m *metaFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.studentID, "student", "", "student id")
	cmd.Flags().StringVar(&m.batch, "batch", "", "batch, e.g. 2026")
	cmd.Flags().StringVar(&m.department, "department", "", "department, e.g. CSE")
	cmd.Flags().IntVar(&m.graduationYear, "graduation-year", 0, "graduation year")
}

func (m metaFlags) options(resumeID string) pipeline.Options {
	return pipeline.Options{
		ResumeID:       resumeID,
		StudentID:      m.studentID,
		Batch:          m.batch,
		Department:     m.department,
		GraduationYear: m.graduationYear,
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "resumectl",
		Short:         "Parse, score and rank student resumes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			telemetry.InitWriter(telemetry.Config{Level: logLevel, Format: "pretty"}, cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		newParseCmd(),
		newScoreCmd(),
		newIngestCmd(),
		newMatchCmd(),
		newShortlistCmd(),
		newExportCmd(),
		newBackfillCmd(),
		newEnqueueCmd(),
		newMigrateCmd(),
	)
	return root
}

// newParseCmd runs extraction and the parsing pipeline offline.
func newParseCmd() *cobra.Command {
	var meta metaFlags
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Print the structured resume for a PDF, DOCX or text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readResumeText(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), pipeline.Build(text, meta.options("")))
		},
	}
	meta.bind(cmd)
	return cmd
}

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score FILE",
		Short: "Print the 0-100 score for a resume file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readResumeText(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), scoring.Compute(pipeline.Build(text, pipeline.Options{})))
		},
	}
	return cmd
}

func readResumeText(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	res, err := extract.FromBytes(ctx, data, mimeType, filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", path, err)
	}
	return res.Text, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withApp loads configuration and builds the shared dependencies for
// commands that touch the stores.
func withApp(ctx context.Context, fn func(*bootstrap.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	app, err := bootstrap.Build(ctx, cfg, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
