package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

// Describe renders the order-system fields of a document, one fact per
// line. Packing data and local fields are left out.
func Describe(doc *models.Document) string {
	var b strings.Builder
	if h := doc.Header; h != nil {
		fmt.Fprintf(&b, "order %s\n", h.Key())
		fmt.Fprintf(&b, "customer %s po %s\n", h.CustomerNumber, h.CustomerPO)
		fmt.Fprintf(&b, "sold to %s | %s | %s | %s\n", h.SoldToName, h.SoldToAddress1, h.SoldToAddress2, h.SoldToCityLine())
		fmt.Fprintf(&b, "ship to %s | %s | %s | %s\n", h.ShipToName, h.ShipToAddress1, h.ShipToAddress2, h.ShipToCityLine())
		fmt.Fprintf(&b, "ordered %s ships %s\n", formatDate(h.OrderDate), formatDate(h.ShipDate))
		fmt.Fprintf(&b, "carrier %s terms %s tracking %s\n", h.Carrier, h.FreightTerms, h.TrackingNumber)
	}
	for _, li := range doc.LineItems {
		lh := li.Header
		fmt.Fprintf(&b, "line %s %s %q ordered %s picked %s back-ordered %s\n",
			lh.LineItemNumber, lh.ProductNumber, lh.ProductDescription,
			lh.QuantityOrdered, lh.QuantityPicked, lh.QuantityBackOrdered)
		for _, d := range li.Details {
			fmt.Fprintf(&b, "  note %s/%d pl=%s bol=%s %s\n", d.ModelItem, d.NoteSequenceNumber, d.PackingListFlag, d.BolFlag, d.Note)
		}
	}
	return b.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

// Changes returns a line diff between two canonical documents, "-" for
// removed and "+" for added lines. It is empty when nothing changed.
func Changes(previous, current *models.Document) string {
	before, after := Describe(previous), Describe(current)
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	c1, c2, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(c1, c2, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				out.WriteString("\n")
			}
		}
	}
	return out.String()
}
