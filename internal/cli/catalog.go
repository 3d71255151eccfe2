package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/parser"
	"github.com/roach88/exprtrace/internal/store"
)

// CatalogOptions holds flags shared by the catalog subcommands.
type CatalogOptions struct {
	*RootOptions
	Database string
	CUEDir   string // add: import every tree of a CUE package
}

// CatalogEntry is one stored tree as reported by the catalog commands.
type CatalogEntry struct {
	Name        string         `json:"name"`
	Fingerprint string         `json:"fingerprint"`
	Source      string         `json:"source"`
	Nodes       int            `json:"nodes"`
	Seq         int64          `json:"seq"`
	Inserted    bool           `json:"inserted,omitempty"`
	RunCount    int            `json:"run_count"`
	Runs        []CatalogRun   `json:"runs,omitempty"`
	Kinds       map[string]int `json:"kinds,omitempty"`
}

// CatalogRun is one recorded trace run.
type CatalogRun struct {
	ID        string   `json:"id"`
	Digest    string   `json:"digest"`
	Nodes     int      `json:"nodes"`
	Lines     int      `json:"lines"`
	Unhandled []string `json:"unhandled"`
	Seq       int64    `json:"seq"`
}

// NewCatalogCommand creates the catalog command and its subcommands.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the SQLite tree catalog",
		Long: `Store named expression trees in a SQLite database and list the
trace runs recorded against them.

Trees are content addressed: adding a tree that is already stored, under
any name, returns the stored entry.

Examples:
  exprtrace catalog add square "(n) => n * n" --db ./trees.db
  exprtrace catalog add --cue ./trees --db ./trees.db
  exprtrace catalog list --db ./trees.db
  exprtrace catalog show square --db ./trees.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "exprtrace.db", "path to SQLite catalog")

	cmd.AddCommand(newCatalogAddCommand(opts))
	cmd.AddCommand(newCatalogListCommand(opts))
	cmd.AddCommand(newCatalogShowCommand(opts))

	return cmd
}

func newCatalogAddCommand(opts *CatalogOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "add [<name> <source>]",
		Short:         "Add a tree to the catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.CUEDir != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogAdd(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.CUEDir, "cue", "", "import every tree of a CUE package")

	return cmd
}

func newCatalogListCommand(opts *CatalogOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List stored trees",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogList(opts, cmd)
		},
	}
}

func newCatalogShowCommand(opts *CatalogOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <name>",
		Short:         "Show a stored tree and its trace runs",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogShow(opts, args[0], cmd)
		},
	}
}

// openCatalog opens the catalog database or reports the failure.
func openCatalog(opts *CatalogOptions, formatter *OutputFormatter) (*store.Store, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("open catalog: %v", err), nil)
	}
	formatter.VerboseLog("Opened catalog %s", opts.Database)
	return st, nil
}

type pendingTree struct {
	name   string
	source string
	node   expr.Node
}

func runCatalogAdd(opts *CatalogOptions, args []string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)

	var pending []pendingTree
	if opts.CUEDir != "" {
		loadResult, loadErrors := LoadTrees(opts.CUEDir, LoadModeCollectAll)
		if len(loadErrors) > 0 {
			if loadResult == nil {
				code, message := parseCompileError(loadErrors[0])
				return formatter.Fail(ExitCommandError, code, message, nil)
			}
			return outputCompileErrors(formatter, loadErrors)
		}
		for _, t := range loadResult.Trees {
			pending = append(pending, pendingTree{name: t.Name, source: t.Source, node: t.Node})
		}
	} else {
		src, err := readSource(args[1], cmd.InOrStdin())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read source", err)
		}
		n, err := parser.Parse(src)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeParse, err.Error(), nil)
		}
		pending = append(pending, pendingTree{name: args[0], source: src, node: n})
	}

	st, err := openCatalog(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	entries := make([]CatalogEntry, 0, len(pending))
	for _, p := range pending {
		rec, inserted, err := st.SaveTree(ctx, p.name, p.source, p.node)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		entries = append(entries, CatalogEntry{
			Name:        rec.Name,
			Fingerprint: rec.ID,
			Source:      rec.Source,
			Nodes:       expr.Count(p.node),
			Seq:         rec.Seq,
			Inserted:    inserted,
		})
	}

	if formatter.JSON() {
		return formatter.Success(entries)
	}
	for _, e := range entries {
		if e.Inserted {
			fmt.Fprintf(formatter.Writer, "✓ Added %s (%s)\n", e.Name, shortID(e.Fingerprint))
		} else {
			fmt.Fprintf(formatter.Writer, "✓ %s already stored as %s\n", shortID(e.Fingerprint), e.Name)
		}
	}
	return nil
}

func runCatalogList(opts *CatalogOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)

	st, err := openCatalog(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	recs, err := st.ListTrees(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	entries := make([]CatalogEntry, 0, len(recs))
	for _, rec := range recs {
		entry, err := catalogEntry(ctx, st, rec, false)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		entries = append(entries, entry)
	}

	if formatter.JSON() {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No trees stored.")
		return nil
	}

	tbl := tablewriter.NewWriter(formatter.Writer)
	tbl.SetHeader([]string{"Name", "Fingerprint", "Nodes", "Runs", "Source"})
	for _, e := range entries {
		tbl.Append([]string{
			e.Name,
			shortID(e.Fingerprint),
			strconv.Itoa(e.Nodes),
			strconv.Itoa(e.RunCount),
			e.Source,
		})
	}
	tbl.Render()
	return nil
}

func runCatalogShow(opts *CatalogOptions, name string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)

	st, err := openCatalog(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.GetTreeByName(ctx, name)
	if err != nil {
		return formatter.Fail(ExitCommandError, storeErrorCode(err), err.Error(), nil)
	}
	entry, err := catalogEntry(ctx, st, rec, true)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	if formatter.JSON() {
		return formatter.Success(entry)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Name:        %s\n", entry.Name)
	fmt.Fprintf(w, "Fingerprint: %s\n", entry.Fingerprint)
	fmt.Fprintf(w, "Source:      %s\n", entry.Source)
	fmt.Fprintf(w, "Nodes:       %d\n", entry.Nodes)
	fmt.Fprintln(w)

	if len(entry.Runs) == 0 {
		fmt.Fprintln(w, "No trace runs recorded.")
		return nil
	}
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Run", "Seq", "Lines", "Unhandled", "Digest"})
	for _, r := range entry.Runs {
		tbl.Append([]string{
			r.ID,
			strconv.FormatInt(r.Seq, 10),
			strconv.Itoa(r.Lines),
			strconv.Itoa(len(r.Unhandled)),
			shortID(r.Digest),
		})
	}
	tbl.Render()
	return nil
}

// catalogEntry decodes rec and attaches its runs; withRuns also reports
// each run and the kind counts of the tree.
func catalogEntry(ctx context.Context, st *store.Store, rec store.TreeRecord, withRuns bool) (CatalogEntry, error) {
	n, err := rec.Node()
	if err != nil {
		return CatalogEntry{}, fmt.Errorf("tree %s: %w", rec.Name, err)
	}
	runs, err := st.ListTraceRuns(ctx, rec.ID)
	if err != nil {
		return CatalogEntry{}, fmt.Errorf("tree %s: %w", rec.Name, err)
	}

	entry := CatalogEntry{
		Name:        rec.Name,
		Fingerprint: rec.ID,
		Source:      rec.Source,
		Nodes:       expr.Count(n),
		Seq:         rec.Seq,
		RunCount:    len(runs),
	}
	if !withRuns {
		return entry, nil
	}

	entry.Kinds = make(map[string]int)
	for k, c := range expr.CountKinds(n) {
		entry.Kinds[k.String()] = c
	}
	for _, r := range runs {
		entry.Runs = append(entry.Runs, CatalogRun{
			ID:        r.ID,
			Digest:    r.Digest,
			Nodes:     r.Nodes,
			Lines:     r.Lines,
			Unhandled: kindNames(r.Unhandled),
			Seq:       r.Seq,
		})
	}
	return entry, nil
}

// shortID abbreviates a hex fingerprint or digest for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
