// Command namematch compares a 1C staff export with a discount-card client
// export from the command line.
//
//	namematch -staff staff.xlsx -clients cards.xlsx
//	namematch -staff staff.csv -clients cards.xlsx -out result.xlsx
//	namematch -staff staff.xlsx -clients cards.xlsx -json
//
// Column positions come from the same LAYOUT_* environment variables as the
// server. Logs go to stderr; results go to stdout or -out.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/namematch/internal/config"
	"github.com/JonMunkholm/namematch/internal/core"
	"github.com/JonMunkholm/namematch/internal/export"
	"github.com/JonMunkholm/namematch/internal/logging"
	"github.com/JonMunkholm/namematch/internal/sheet"
)

type options struct {
	staff    string
	clients  string
	out      string
	json     bool
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("namematch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.staff, "staff", "", "1C staff export (.xlsx, .xls or .csv), full name in one column")
	fs.StringVar(&opts.clients, "clients", "", "Discount-card export (.xlsx, .xls or .csv), surname / given name / patronym columns")
	fs.StringVar(&opts.out, "out", "", "Write the result to a .csv or .xlsx file instead of stdout")
	fs.BoolVar(&opts.json, "json", false, "Print the result as JSON")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.staff == "" || opts.clients == "" {
		fs.Usage()
		return opts, errors.New("both -staff and -clients are required")
	}
	if opts.out != "" && opts.json {
		return opts, errors.New("-out and -json are mutually exclusive")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "namematch: %v\n", err)
		return 2
	}

	// Unlike the server, the shell environment wins over .env here.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "namematch: %v\n", err)
		return 1
	}
	level := cfg.Logging.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	slog.SetDefault(logging.New(stderr, level, cfg.Logging.Format))

	if err := compare(ctx, cfg, opts, stdout); err != nil {
		slog.Error("comparison failed", "error", err, "hint", core.FormatUserError(err))
		return 1
	}
	return 0
}

func compare(ctx context.Context, cfg *config.Config, opts options, stdout io.Writer) error {
	var kind export.Kind
	if opts.out != "" {
		k, err := export.ParseKind(filepath.Ext(opts.out))
		if err != nil {
			return err
		}
		kind = k
	}

	staffFile, err := os.Open(opts.staff)
	if err != nil {
		return err
	}
	defer staffFile.Close()

	clientsFile, err := os.Open(opts.clients)
	if err != nil {
		return err
	}
	defer clientsFile.Close()

	svc := core.NewService(sheet.Parse, nil, cfg.ServiceOptions())
	cmp, err := svc.CompareFiles(ctx,
		core.FileInput{Name: filepath.Base(opts.staff), Reader: staffFile},
		core.FileInput{Name: filepath.Base(opts.clients), Reader: clientsFile},
	)
	if err != nil {
		return err
	}

	slog.Info("comparison summary",
		"staff", cmp.Staff.Count(),
		"clients", cmp.Clients.Count(),
		"matched", len(cmp.Result.Matched),
		"unmatched", len(cmp.Result.Unmatched),
	)

	switch {
	case kind != "":
		return writeFile(opts.out, kind, cmp.Result)
	case opts.json:
		return writeJSON(stdout, cmp)
	default:
		return writeTable(stdout, cmp.Result)
	}
}

func writeFile(path string, kind export.Kind, result core.MatchResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := export.Write(f, kind, result); err != nil {
		return err
	}
	slog.Info("result written", "path", path)
	return nil
}

type extractionJSON struct {
	FileName  string `json:"fileName"`
	RowsRead  int    `json:"rowsRead"`
	Extracted int    `json:"extracted"`
}

func writeJSON(w io.Writer, cmp *core.Comparison) error {
	summary := func(e *core.Extraction) extractionJSON {
		return extractionJSON{FileName: e.FileName, RowsRead: e.RowsRead, Extracted: e.Count()}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Staff   extractionJSON   `json:"staff"`
		Clients extractionJSON   `json:"clients"`
		Result  core.MatchResult `json:"result"`
	}{summary(cmp.Staff), summary(cmp.Clients), cmp.Result})
}

// writeTable prints the two lists side by side.
func writeTable(w io.Writer, result core.MatchResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 3, ' ', 0)
	for _, row := range export.Table(result) {
		fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}
	return tw.Flush()
}
