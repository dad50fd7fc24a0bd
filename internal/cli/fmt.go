package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mattn/go-isatty"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/nodewriter/pkg/errors"
	"github.com/matzehuels/nodewriter/pkg/pipeline"
)

// stdinName is the argument (and display name) for standard input.
const stdinName = "-"

// fmtOpts holds the command-line flags for the fmt command.
type fmtOpts struct {
	renderFlags
	write   bool // rewrite files in place
	diff    bool // print unified diffs instead of output
	check   bool // list files that would change and fail
	jobs    int  // files formatted concurrently
	noCache bool
}

// fmtResult is one formatted input.
type fmtResult struct {
	path   string
	input  []byte
	output []byte
	cached bool
}

func (r fmtResult) changed() bool { return !bytes.Equal(r.input, r.output) }

// fmtCommand creates the fmt command.
func (c *CLI) fmtCommand() *cobra.Command {
	opts := fmtOpts{jobs: runtime.NumCPU()}

	cmd := &cobra.Command{
		Use:   "fmt [file|glob ...]",
		Short: "Pretty-print documents",
		Long: `Pretty-print XML-like documents.

Each argument is a file or a glob ("docs/**/*.xml"). Without arguments, or
with "-", the document is read from standard input.

By default the formatted documents are written to standard output in
argument order. With -w files are rewritten in place, with -d a unified
diff is printed, and with --check the files that would change are listed
and the command fails if there are any.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.write && opts.diff {
				return errors.New(errors.ErrCodeInvalidOption, "-w and -d are mutually exclusive")
			}
			if opts.jobs < 1 {
				opts.jobs = 1
			}
			return c.runFmt(cmd.Context(), cmd, args, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write result to (source) file instead of stdout")
	cmd.Flags().BoolVarP(&opts.diff, "diff", "d", false, "display diffs instead of rewriting files")
	cmd.Flags().BoolVar(&opts.check, "check", false, "list files whose formatting differs and exit non-zero")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", opts.jobs, "number of files formatted concurrently")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// runFmt formats every input and reports the results in argument order.
func (c *CLI) runFmt(ctx context.Context, cmd *cobra.Command, args []string, opts fmtOpts) error {
	paths, err := expandArgs(args)
	if err != nil {
		return err
	}
	if opts.write && len(paths) == 1 && paths[0] == stdinName {
		return errors.New(errors.ErrCodeInvalidOption, "cannot use -w with standard input")
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	var (
		spinner  *Spinner
		finished atomic.Int64
	)
	if len(paths) > 1 && isTerminal(c.stderr) {
		spinner = newSpinnerTo(ctx, c.stderr, fmt.Sprintf("Formatting 0/%d files...", len(paths)))
		spinner.Start()
	}
	prog := newProgress(c.Logger)

	results := make([]fmtResult, len(paths))
	g, gctx := errgroup.WithContext(withLogger(ctx, c.Logger))
	g.SetLimit(opts.jobs)
	for i, path := range paths {
		g.Go(func() error {
			res, err := c.formatOne(gctx, cmd, runner, path, &opts.renderFlags)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			if n := finished.Add(1); spinner != nil {
				spinner.SetMessage(fmt.Sprintf("Formatting %d/%d files...", n, len(paths)))
			}
			return nil
		})
	}
	err = g.Wait()
	if spinner != nil {
		if err != nil {
			spinner.StopWithError("Formatting failed")
		} else {
			spinner.Stop()
		}
	}
	if err != nil {
		return err
	}

	var unformatted int
	for _, res := range results {
		switch {
		case opts.check || opts.diff || opts.write:
			if !res.changed() {
				continue
			}
			unformatted++
			if err := c.reportChange(res, opts); err != nil {
				return err
			}
		default:
			if _, err := c.stdout.Write(res.output); err != nil {
				return err
			}
		}
	}

	if len(paths) > 1 {
		prog.done(fmt.Sprintf("Formatted %d files, %d changed", len(paths), countChanged(results)))
	}
	if opts.check && unformatted > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "%d file(s) not formatted", unformatted)
	}
	return nil
}

// formatOne reads and formats a single input.
func (c *CLI) formatOne(ctx context.Context, cmd *cobra.Command, runner *pipeline.Runner, path string, flags *renderFlags) (fmtResult, error) {
	var (
		input []byte
		err   error
		name  string
	)
	if path == stdinName {
		input, err = io.ReadAll(c.stdin)
	} else {
		input, err = os.ReadFile(path)
		name = path
	}
	if err != nil {
		return fmtResult{}, err
	}

	opts, err := c.options(cmd, flags, name)
	if err != nil {
		return fmtResult{}, err
	}
	opts.Logger = loggerFromContext(ctx).With("file", path)

	res, err := runner.Format(ctx, input, opts)
	if err != nil {
		return fmtResult{}, err
	}
	return fmtResult{path: path, input: input, output: res.Output, cached: res.CacheInfo.RenderHit}, nil
}

// reportChange handles a changed result in -w, -d or --check mode.
func (c *CLI) reportChange(res fmtResult, opts fmtOpts) error {
	switch {
	case opts.diff:
		diff, err := unifiedDiff(res)
		if err != nil {
			return err
		}
		if isTerminal(c.stdout) {
			diff = colorizeDiff(diff)
		}
		_, err = io.WriteString(c.stdout, diff)
		return err
	case opts.write:
		return writeInPlace(res.path, res.output)
	default:
		_, err := fmt.Fprintln(c.stdout, res.path)
		return err
	}
}

func countChanged(results []fmtResult) int {
	n := 0
	for _, r := range results {
		if r.changed() {
			n++
		}
	}
	return n
}

// =============================================================================
// Inputs
// =============================================================================

// expandArgs resolves globs. No arguments means standard input.
func expandArgs(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{stdinName}, nil
	}
	var paths []string
	seen := make(map[string]bool)
	for _, arg := range args {
		if arg == stdinName {
			if len(args) > 1 {
				return nil, errors.New(errors.ErrCodeInvalidPath, "standard input cannot be combined with files")
			}
			return []string{stdinName}, nil
		}
		matches := []string{arg}
		if strings.ContainsAny(arg, "*?[{") {
			var err error
			matches, err = doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "glob %q", arg)
			}
			if len(matches) == 0 {
				return nil, errors.New(errors.ErrCodeInvalidPath, "no files match %q", arg)
			}
		} else if err := errors.ValidatePath(arg); err != nil {
			return nil, err
		} else if fi, err := os.Stat(arg); err == nil && fi.IsDir() {
			return nil, errors.New(errors.ErrCodeInvalidPath, "%s is a directory (use a glob such as %s/**/*.xml)", arg, arg)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}

// =============================================================================
// Outputs
// =============================================================================

func unifiedDiff(res fmtResult) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(res.input)),
		B:        difflib.SplitLines(string(res.output)),
		FromFile: res.path + ".orig",
		ToFile:   res.path,
		Context:  3,
	})
}

// colorizeDiff styles added, removed and hunk header lines.
func colorizeDiff(diff string) string {
	lines := strings.SplitAfter(diff, "\n")
	for i, line := range lines {
		body := strings.TrimSuffix(line, "\n")
		nl := line[len(body):]
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			lines[i] = StyleTitle.Render(body) + nl
		case strings.HasPrefix(body, "@@"):
			lines[i] = StyleHighlight.Render(body) + nl
		case strings.HasPrefix(body, "+"):
			lines[i] = StyleSuccess.Render(body) + nl
		case strings.HasPrefix(body, "-"):
			lines[i] = styleRemoved.Render(body) + nl
		}
	}
	return strings.Join(lines, "")
}

// writeInPlace replaces path's content, keeping its permissions.
func writeInPlace(path string, data []byte) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, fi.Mode().Perm())
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
