package layout

import (
	"fmt"

	"github.com/Versteel/Shipping-Form-Creator-sub000/aggregate"
	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

// Kind tells the page variants apart
type Kind string

const (
	KindFirst        Kind = "first"
	KindContinuation Kind = "continuation"
	KindNotes        Kind = "notes"
)

// Page is one printed packing-list page. Labels are assigned after the whole
// sequence is known.
type Page interface {
	Kind() Kind
	PageLabel() string
	SetPageLabel(n, total int)
}

type pageLabel struct {
	Label string `json:"page_label"`
}

func (p *pageLabel) PageLabel() string { return p.Label }

func (p *pageLabel) SetPageLabel(n, total int) {
	p.Label = fmt.Sprintf("Page %d of %d", n, total)
}

// PageItem is a line item as shown in one view: its packing units are
// restricted to the view and its details to the printable notes.
type PageItem struct {
	Item         *models.LineItem             `json:"item"`
	PackingUnits []models.LineItemPackingUnit `json:"packing_units"`
	Details      []models.LineItemDetail      `json:"details"`
}

// FirstPage carries the document header and at most one line item
type FirstPage struct {
	pageLabel
	Header     *models.Header          `json:"header"`
	OrderNotes []models.LineItemDetail `json:"order_notes"`
	Item       *PageItem               `json:"item"`
}

func (*FirstPage) Kind() Kind { return KindFirst }

// ContinuationPage holds the line items that follow the first one
type ContinuationPage struct {
	pageLabel
	Items       []PageItem `json:"items"`
	DetailCount int        `json:"detail_count"`
}

func (*ContinuationPage) Kind() Kind { return KindContinuation }

// NotesPage closes the packing list with shipping notes, the freight
// summary and the handling units
type NotesPage struct {
	pageLabel
	Notes         []models.LineItemDetail `json:"notes"`
	Summary       aggregate.Summary       `json:"summary"`
	HandlingUnits []models.HandlingUnit   `json:"handling_units"`
}

func (*NotesPage) Kind() Kind { return KindNotes }

func labelPages(pages []Page) {
	for i, p := range pages {
		p.SetPageLabel(i+1, len(pages))
	}
}
