// Command shipdocs works on shipping documents stored as JSON files: it lays
// them out, summarizes freight, reconciles a fresh order against saved
// packing data and diffs two order snapshots.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Versteel/Shipping-Form-Creator-sub000/aggregate"
	"github.com/Versteel/Shipping-Form-Creator-sub000/journal"
	"github.com/Versteel/Shipping-Form-Creator-sub000/layout"
	"github.com/Versteel/Shipping-Form-Creator-sub000/reconcile"
	"github.com/Versteel/Shipping-Form-Creator-sub000/render"
	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
	"github.com/Versteel/Shipping-Form-Creator-sub000/source"
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

type layoutFlags struct {
	view         string
	capacity     int
	keepBoundary bool
	excludeNote  string
	freightTable string
	asJSON       bool
	sourceRowsIn bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "shipdocs",
		Short:         "Packing list and bill of lading tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	var lf layoutFlags
	pagesCmd := &cobra.Command{
		Use:   "pages <document.json>",
		Short: "Lay a document out onto packing-list pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPages(cmd.OutOrStdout(), args[0], lf)
		},
	}
	addLayoutFlags(pagesCmd, &lf)

	var sf layoutFlags
	summaryCmd := &cobra.Command{
		Use:   "summary <document.json>",
		Short: "Print the bill-of-lading freight summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd.OutOrStdout(), args[0], sf)
		},
	}
	summaryCmd.Flags().StringVar(&sf.view, "view", models.ViewAll, "Truck number to show, or ALL")
	summaryCmd.Flags().StringVar(&sf.freightTable, "freight-table", "", "YAML freight classification table")
	summaryCmd.Flags().BoolVar(&sf.asJSON, "json", false, "Print JSON instead of text")
	summaryCmd.Flags().BoolVar(&sf.sourceRowsIn, "rows", false, "Input is raw order-system rows")

	var rowsIn bool
	reconcileCmd := &cobra.Command{
		Use:   "reconcile <canonical.json> [cached.json]",
		Short: "Merge saved packing data into a fresh order and print the result",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd.OutOrStdout(), args, rowsIn)
		},
	}
	reconcileCmd.Flags().BoolVar(&rowsIn, "rows", false, "Canonical input is raw order-system rows")

	diffCmd := &cobra.Command{
		Use:   "diff <before.json> <after.json>",
		Short: "Show what the order system changed between two snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.OutOrStdout(), args[0], args[1])
		},
	}

	keyCmd := &cobra.Command{
		Use:   "key <order-key>",
		Short: "Validate and normalize an order key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := models.ParseOrderKey(args[0])
			if err != nil {
				return codeError(2, "%s", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}

	root.AddCommand(pagesCmd, summaryCmd, reconcileCmd, diffCmd, keyCmd)
	return root
}

func addLayoutFlags(cmd *cobra.Command, lf *layoutFlags) {
	f := cmd.Flags()
	f.StringVar(&lf.view, "view", models.ViewAll, "Truck number to show, or ALL")
	f.IntVar(&lf.capacity, "capacity", layout.DefaultCapacity, "Notes per continuation page")
	f.BoolVar(&lf.keepBoundary, "keep-first-page-boundaries", false, "Print every note of the first-page item")
	f.StringVar(&lf.excludeNote, "exclude-note", layout.DefaultExcludedNoteSubstring, "Hide continuation notes containing this text")
	f.StringVar(&lf.freightTable, "freight-table", "", "YAML freight classification table")
	f.BoolVar(&lf.asJSON, "json", false, "Print JSON instead of text")
	f.BoolVar(&lf.sourceRowsIn, "rows", false, "Input is raw order-system rows")
}

func loadTable(path string) (aggregate.Table, error) {
	if path == "" {
		return aggregate.DefaultTable(), nil
	}
	t, err := aggregate.LoadTable(path)
	if err != nil {
		return nil, codeError(3, "%s", err)
	}
	return t, nil
}

// readDocument reads a document JSON file, or order-system rows when rows is set
func readDocument(path string, rows bool) (*models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, codeError(3, "reading %s: %s", path, err)
	}
	if rows {
		var r source.OrderRows
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, codeError(3, "decoding rows %s: %s", path, err)
		}
		doc, err := source.MapOrder(r)
		if err != nil {
			return nil, codeError(3, "mapping rows %s: %s", path, err)
		}
		return doc, nil
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, codeError(3, "decoding %s: %s", path, err)
	}
	return &doc, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runPages(w io.Writer, path string, lf layoutFlags) error {
	doc, err := readDocument(path, lf.sourceRowsIn)
	if err != nil {
		return err
	}
	table, err := loadTable(lf.freightTable)
	if err != nil {
		return err
	}
	opts := layout.Options{
		Capacity:                lf.capacity,
		KeepFirstPageBoundaries: lf.keepBoundary,
		ExcludedNoteSubstring:   lf.excludeNote,
	}
	pages := layout.Paginate(doc, lf.view, opts, table)
	if lf.asJSON {
		return writeJSON(w, pages)
	}
	_, err = fmt.Fprintln(w, render.Pages(pages))
	return err
}

func runSummary(w io.Writer, path string, sf layoutFlags) error {
	doc, err := readDocument(path, sf.sourceRowsIn)
	if err != nil {
		return err
	}
	table, err := loadTable(sf.freightTable)
	if err != nil {
		return err
	}
	s := aggregate.SummarizeView(doc, sf.view, table)
	if sf.asJSON {
		return writeJSON(w, s)
	}
	_, err = fmt.Fprintln(w, render.Summary(s))
	return err
}

func runReconcile(w io.Writer, args []string, rows bool) error {
	canonical, err := readDocument(args[0], rows)
	if err != nil {
		return err
	}
	var cached *models.Document
	if len(args) == 2 {
		if cached, err = readDocument(args[1], false); err != nil {
			return err
		}
	}
	doc, err := reconcile.Reconcile(canonical, cached)
	if err != nil {
		return codeError(2, "%s", err)
	}
	return writeJSON(w, doc)
}

func runDiff(w io.Writer, before, after string) error {
	a, err := readDocument(before, false)
	if err != nil {
		return err
	}
	b, err := readDocument(after, false)
	if err != nil {
		return err
	}
	changes := journal.Changes(a, b)
	if changes == "" {
		_, err = fmt.Fprintln(w, "no changes")
		return err
	}
	_, err = io.WriteString(w, changes)
	return err
}
