// Package layout lays a reconciled document out onto packing-list pages.
//
// The first kept line item always sits alone on the first page. The rest are
// packed greedily onto continuation pages by printable-note count, and a
// notes page closes the list when the order carries shipping notes or
// handling units.
package layout

import (
	"sort"
	"strings"

	"github.com/Versteel/Shipping-Form-Creator-sub000/aggregate"
	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

// Defaults for Options
const (
	DefaultCapacity              = 35
	DefaultExcludedNoteSubstring = "OPTIONS"
)

// Options tunes the page layout
type Options struct {
	// Capacity is the number of notes a continuation page holds. A single
	// item larger than the capacity still gets a page of its own.
	Capacity int
	// KeepFirstPageBoundaries disables dropping the first and last note of
	// the first-page item.
	KeepFirstPageBoundaries bool
	// ExcludedNoteSubstring hides matching notes on continuation pages.
	// They still count toward capacity. Empty disables the filter.
	ExcludedNoteSubstring string
}

// DefaultOptions returns the production layout settings
func DefaultOptions() Options {
	return Options{
		Capacity:              DefaultCapacity,
		ExcludedNoteSubstring: DefaultExcludedNoteSubstring,
	}
}

func (o Options) capacity() int {
	if o.Capacity <= 0 {
		return DefaultCapacity
	}
	return o.Capacity
}

// Paginate lays out the packing list for one view ("ALL" or a truck label)
func Paginate(doc *models.Document, view string, opts Options, table aggregate.Table) []Page {
	first := &FirstPage{}
	pages := []Page{first}
	if doc == nil {
		labelPages(pages)
		return pages
	}
	first.Header = doc.Header
	first.OrderNotes = OrderNotes(doc)

	kept := keptItems(doc, view)
	if len(kept) == 0 {
		labelPages(pages)
		return pages
	}

	lead := kept[0]
	lead.Details = firstPageDetails(lead.Item, opts)
	first.Item = &lead

	var current *ContinuationPage
	for _, it := range kept[1:] {
		count := len(printableDetails(it.Item))
		it.Details = continuationDetails(it.Item, opts)

		if current != nil && len(current.Items) > 0 && current.DetailCount+count > opts.capacity() {
			pages = append(pages, current)
			current = nil
		}
		if current == nil {
			current = &ContinuationPage{}
		}
		current.Items = append(current.Items, it)
		current.DetailCount += count
	}
	if current != nil && len(current.Items) > 0 {
		pages = append(pages, current)
	}

	notes := ShippingNotes(doc)
	if len(notes) > 0 || len(doc.HandlingUnits) > 0 {
		pages = append(pages, &NotesPage{
			Notes:         notes,
			Summary:       aggregate.Summarize(doc, table),
			HandlingUnits: doc.HandlingUnits,
		})
	}

	labelPages(pages)
	return pages
}

// keptItems returns the physical line items visible in the view, ordered by
// line-item number. Items without packing units are always kept; items
// whose units all belong to other trucks are dropped.
func keptItems(doc *models.Document, view string) []PageItem {
	var physical []*models.LineItem
	for i := range doc.LineItems {
		if doc.LineItems[i].IsPhysical() {
			physical = append(physical, &doc.LineItems[i])
		}
	}
	sort.SliceStable(physical, func(i, j int) bool {
		return physical[i].Header.LineItemNumber.LessThan(physical[j].Header.LineItemNumber)
	})

	var kept []PageItem
	for _, li := range physical {
		units := []models.LineItemPackingUnit{}
		for _, u := range li.PackingUnits {
			if models.MatchesView(u, view) {
				units = append(units, u)
			}
		}
		if len(li.PackingUnits) > 0 && len(units) == 0 {
			continue
		}
		kept = append(kept, PageItem{Item: li, PackingUnits: units})
	}
	return kept
}

// printableDetails returns the notes flagged for the packing list
func printableDetails(li *models.LineItem) []models.LineItemDetail {
	out := []models.LineItemDetail{}
	for _, d := range li.Details {
		if d.HasText() && d.OnPackingList() {
			out = append(out, d)
		}
	}
	models.SortDetails(out)
	return out
}

// firstPageDetails drops the first and last printable note; the order
// system writes boundary rows there that do not print.
func firstPageDetails(li *models.LineItem, opts Options) []models.LineItemDetail {
	details := printableDetails(li)
	if opts.KeepFirstPageBoundaries || len(details) < 2 {
		return details
	}
	return details[1 : len(details)-1]
}

func continuationDetails(li *models.LineItem, opts Options) []models.LineItemDetail {
	details := printableDetails(li)
	if opts.ExcludedNoteSubstring == "" {
		return details
	}
	out := details[:0]
	for _, d := range details {
		if !strings.Contains(strings.TrimSpace(d.Note), opts.ExcludedNoteSubstring) {
			out = append(out, d)
		}
	}
	return out
}

// ShippingNotes returns the packing-list notes of the shipping notes line
// (model item 950), across all line items
func ShippingNotes(doc *models.Document) []models.LineItemDetail {
	return collectNotes(doc, models.ShippingNotesModelItem, (*models.LineItemDetail).OnPackingList)
}

// BolNotes returns the shipping notes flagged for the bill of lading
func BolNotes(doc *models.Document) []models.LineItemDetail {
	return collectNotes(doc, models.ShippingNotesModelItem, (*models.LineItemDetail).OnBol)
}

// OrderNotes returns the packing-list notes of the order notes line (model item 0)
func OrderNotes(doc *models.Document) []models.LineItemDetail {
	return collectNotes(doc, models.OrderNotesModelItem, (*models.LineItemDetail).OnPackingList)
}

func collectNotes(doc *models.Document, modelItem int64, flagged func(*models.LineItemDetail) bool) []models.LineItemDetail {
	out := []models.LineItemDetail{}
	for _, li := range doc.LineItems {
		for _, d := range li.Details {
			if d.ModelItemIs(modelItem) && flagged(&d) && d.HasText() {
				out = append(out, d)
			}
		}
	}
	models.SortDetails(out)
	return out
}

// TruckNumbers lists the distinct truck labels used by the packing units,
// sorted, so callers can offer one view per truck
func TruckNumbers(doc *models.Document) []string {
	seen := make(map[string]bool)
	var trucks []string
	for _, u := range doc.AllPackingUnits() {
		label := strings.TrimSpace(u.TruckNumber)
		if label == "" || seen[strings.ToUpper(label)] {
			continue
		}
		seen[strings.ToUpper(label)] = true
		trucks = append(trucks, label)
	}
	sort.Strings(trucks)
	return trucks
}
