package main

import (
	"bytes"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"resume-ranker/internal/bootstrap"
	"resume-ranker/internal/export"
	"resume-ranker/internal/resumes"
	"resume-ranker/internal/shared/storage/db"
)

func newIngestCmd() *cobra.Command {
	var (
		meta     metaFlags
		resumeID string
	)
	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Store a resume file and queue its embedding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				rec, err := app.Service.IngestFile(cmd.Context(), resumes.FileInput{
					IngestInput: resumes.IngestInput{
						ResumeID:       resumeID,
						StudentID:      meta.studentID,
						Batch:          meta.batch,
						Department:     meta.department,
						GraduationYear: meta.graduationYear,
					},
					FileName: filepath.Base(args[0]),
					MimeType: mime.TypeByExtension(filepath.Ext(args[0])),
					Body:     bytes.NewReader(data),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tscore=%d\tembedding=%s\n", rec.ID, rec.Score, rec.EmbeddingStatus)
				return nil
			})
		},
	}
	meta.bind(cmd)
	cmd.Flags().StringVar(&resumeID, "id", "", "resume id (generated when empty)")
	return cmd
}

type jdFlags struct {
	jdFile     string
	topN       int
	batch      string
	department string
}

func (f *jdFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.jdFile, "jd", "", "job description file (required)")
	cmd.Flags().IntVar(&f.topN, "top", 0, "number of results")
	cmd.Flags().StringVar(&f.batch, "batch", "", "restrict to batch")
	cmd.Flags().StringVar(&f.department, "department", "", "restrict to department")
	_ = cmd.MarkFlagRequired("jd")
}

func (f jdFlags) text() (string, error) {
	raw, err := os.ReadFile(f.jdFile)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", fmt.Errorf("%s is empty", f.jdFile)
	}
	return text, nil
}

func newMatchCmd() *cobra.Command {
	var f jdFlags
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Rank stored resumes against a job description by embedding similarity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jd, err := f.text()
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				results, err := app.Service.MatchJD(cmd.Context(), resumes.MatchRequest{
					JDText: jd, TopN: f.topN, Batch: f.batch, Department: f.department,
				})
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), results)
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newShortlistCmd() *cobra.Command {
	var f jdFlags
	cmd := &cobra.Command{
		Use:   "shortlist",
		Short: "Blend embedding and keyword scores into a shortlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jd, err := f.text()
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				results, err := app.Service.Shortlist(cmd.Context(), f.shortlistRequest(jd))
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), results)
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func (f jdFlags) shortlistRequest(jd string) resumes.ShortlistRequest {
	return resumes.ShortlistRequest{JDText: jd, TopN: f.topN, Batch: f.batch, Department: f.department}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write xlsx reports",
	}
	cmd.AddCommand(newExportShortlistCmd(), newExportCohortCmd())
	return cmd
}

func newExportShortlistCmd() *cobra.Command {
	var (
		f   jdFlags
		out string
	)
	cmd := &cobra.Command{
		Use:   "shortlist",
		Short: "Write the shortlist for a job description as a workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jd, err := f.text()
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("shortlist-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
			}
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				rep, err := app.Service.ShortlistReport(cmd.Context(), f.shortlistRequest(jd))
				if err != nil {
					return err
				}
				if err := writeFile(out, func(buf *bytes.Buffer) error { return export.WriteShortlist(buf, rep) }); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(rep.Results), out)
				return nil
			})
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path")
	return cmd
}

func newExportCohortCmd() *cobra.Command {
	var batch, department, out string
	cmd := &cobra.Command{
		Use:   "cohort",
		Short: "Write a ranked cohort workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				out = fmt.Sprintf("cohort-%s-%s-%s.xlsx", orAll(batch), orAll(department), time.Now().UTC().Format("20060102"))
			}
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				rows, err := app.Service.CohortReport(cmd.Context(), batch, department)
				if err != nil {
					return err
				}
				if err := writeFile(out, func(buf *bytes.Buffer) error {
					return export.WriteCohort(buf, batch, department, rows)
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(rows), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&batch, "batch", "", "batch filter")
	cmd.Flags().StringVar(&department, "department", "", "department filter")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path")
	return cmd
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

func writeFile(path string, render func(*bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func newBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Queue embedding jobs for resumes that have none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				n, err := app.Queue.Backfill(cmd.Context(), app.Resumes)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enqueued %d\n", n)
				return nil
			})
		},
	}
}

func newEnqueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue RESUME_ID...",
		Short: "Queue (or requeue) embedding for specific resumes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				for _, id := range args {
					if _, err := app.Service.Get(cmd.Context(), id); err != nil {
						return fmt.Errorf("%s: %w", id, err)
					}
					job, err := app.Queue.EnqueueResumeEmbedding(cmd.Context(), id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tjob=%s\n", id, job.ID)
				}
				return nil
			})
		},
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Manage the database schema",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				if app.DB == nil {
					return fmt.Errorf("migrate needs DATABASE_URL")
				}
				switch action {
				case "up":
					return db.RunMigrations(cmd.Context(), app.DB)
				case "down":
					return db.RollbackMigration(cmd.Context(), app.DB)
				case "status":
					return db.MigrationStatus(cmd.Context(), app.DB)
				}
				return fmt.Errorf("unknown action %q", action)
			})
		},
	}
	return cmd
}
