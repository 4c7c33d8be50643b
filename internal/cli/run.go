package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/app"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/notify"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/render"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/report"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/workflow"
	"github.com/spf13/cobra"
)

type runOptions struct {
	Threshold  int
	NoAnalyze  bool
	Compare    []string
	Converse   string
	SaveReport bool
	Cleanup    bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run FILE...",
	Short: "Upload files, analyze them and print the results",
	Long: `run performs one terminal session against the backend:
the files are uploaded, analyzed with the given threshold and the results are printed.
Pairs can be compared with --compare a.txt,b.txt (repeatable).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSessionCommand,
}

func init() {
	runCmd.Flags().IntVarP(&runOpts.Threshold, "threshold", "t", 80, "similarity threshold, percent 0..100")
	runCmd.Flags().BoolVar(&runOpts.NoAnalyze, "no-analyze", false, "upload only")
	runCmd.Flags().StringArrayVar(&runOpts.Compare, "compare", nil, "compare a pair of uploaded files: a.txt,b.txt")
	runCmd.Flags().StringVar(&runOpts.Converse, "converse", "", "send text to the conversation endpoint")
	runCmd.Flags().BoolVar(&runOpts.SaveReport, "report", false, "save the analysis report to the configured storage")
	runCmd.Flags().BoolVar(&runOpts.Cleanup, "cleanup", false, "delete the session on the backend when done")

	rootCmd.AddCommand(runCmd)
}

func runSessionCommand(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	components, err := app.Build(cfg, log,
		[]notify.Sink{notify.NewConsoleSink(out, cfg.Logging.NoColor)},
		NewTerminalProgress(cmd.ErrOrStderr()),
	)
	if err != nil {
		return err
	}
	defer components.Close()

	files, err := openFiles(args)
	if err != nil {
		return err
	}

	return runSession(cmd.Context(), components.Workbench, components.Reports, files, runOpts, out)
}

// runSession останавливается на первой ошибке: уведомление о ней уже напечатано.
func runSession(ctx context.Context, wb *workflow.Orchestrator, reports report.Sink, files []models.SelectedFile, opts runOptions, out io.Writer) error {
	if err := wb.Upload(ctx, files); err != nil {
		return err
	}

	if !opts.NoAnalyze {
		if err := wb.Analyze(ctx, opts.Threshold); err != nil {
			return err
		}
		if v := wb.View(); v != nil {
			printView(out, v)
		}
	}

	for _, pair := range opts.Compare {
		file1, file2, ok := strings.Cut(pair, ",")
		if !ok {
			return fmt.Errorf("invalid --compare value %q, expected a.txt,b.txt", pair)
		}
		if err := wb.Compare(ctx, strings.TrimSpace(file1), strings.TrimSpace(file2)); err != nil {
			return err
		}
		fmt.Fprintln(out, wb.Comparison())
	}

	if opts.Converse != "" {
		if err := wb.Converse(ctx, opts.Converse); err != nil {
			return err
		}
		fmt.Fprintln(out, wb.Conversation())
	}

	if opts.SaveReport {
		if _, err := wb.SaveReport(ctx, reports); err != nil {
			return err
		}
	}

	if opts.Cleanup {
		return wb.Cleanup(ctx)
	}
	return nil
}

// openFiles проверяет файлы заранее, а читает их только при загрузке.
func openFiles(paths []string) ([]models.SelectedFile, error) {
	files := make([]models.SelectedFile, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", p)
		}

		files = append(files, models.SelectedFile{
			Name: filepath.Base(p),
			Size: info.Size(),
			Open: func() (io.ReadCloser, error) {
				return os.Open(p)
			},
		})
	}
	return files, nil
}

func printView(out io.Writer, v *render.View) {
	fmt.Fprintf(out, "\n%s\n%s\n", v.Title, v.Timestamp)

	if h := v.Heatmap; h != nil {
		fmt.Fprintln(out)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tw, "\t%s\t\n", strings.Join(h.Labels, "\t"))
		for _, row := range h.Rows {
			labels := make([]string, 0, len(row.Cells))
			for _, c := range row.Cells {
				labels = append(labels, c.Label)
			}
			fmt.Fprintf(tw, "%s\t%s\t\n", row.Label, strings.Join(labels, "\t"))
		}
		tw.Flush()
	}

	if s := v.Similarity; s != nil {
		fmt.Fprintf(out, "\n%s\n%s\n", s.Title, s.Threshold)
		for _, p := range s.Pairs {
			fmt.Fprintf(out, "  %s\n", p.Label)
		}
		if s.Empty != "" {
			fmt.Fprintf(out, "  %s\n", s.Empty)
		}
	}

	if a := v.AIDetection; a != nil {
		fmt.Fprintf(out, "\n%s\n", a.Title)
		for _, item := range a.Items {
			fmt.Fprintf(out, "  %s: %s\n", item.File, item.Label)
		}
		if a.Empty != "" {
			fmt.Fprintf(out, "  %s\n", a.Empty)
		}
	}
	fmt.Fprintln(out)
}
