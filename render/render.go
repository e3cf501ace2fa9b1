// Package render prints laid-out packing-list pages and the bill-of-lading
// summary as terminal text.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Versteel/Shipping-Form-Creator-sub000/aggregate"
	"github.com/Versteel/Shipping-Form-Creator-sub000/layout"
	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	footerStyle  = lipgloss.NewStyle().Faint(true)
	sectionStyle = lipgloss.NewStyle().MarginTop(1)
	pageStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

// Pages renders every page, one bordered block per page
func Pages(pages []layout.Page) string {
	blocks := make([]string, 0, len(pages))
	for _, p := range pages {
		blocks = append(blocks, pageStyle.Render(Page(p)))
	}
	return strings.Join(blocks, "\n")
}

// Page renders one page without its border
func Page(p layout.Page) string {
	var parts []string
	switch p := p.(type) {
	case *layout.FirstPage:
		parts = append(parts, header(p.Header))
		if len(p.OrderNotes) > 0 {
			parts = append(parts, section("Order notes", notes(p.OrderNotes)))
		}
		if p.Item != nil {
			parts = append(parts, sectionStyle.Render(Item(*p.Item)))
		}
	case *layout.ContinuationPage:
		for _, it := range p.Items {
			parts = append(parts, Item(it))
		}
	case *layout.NotesPage:
		if len(p.Notes) > 0 {
			parts = append(parts, section("Shipping notes", notes(p.Notes)))
		}
		parts = append(parts, section("Freight summary", Summary(p.Summary)))
		if len(p.HandlingUnits) > 0 {
			parts = append(parts, section("Handling units", handlingUnits(p.HandlingUnits)))
		}
	}
	parts = append(parts, footerStyle.Render(p.PageLabel()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func section(title, body string) string {
	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, labelStyle.Render(title), body))
}

func header(h *models.Header) string {
	if h == nil {
		return titleStyle.Render("Packing List")
	}
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Packing List  %s", h.Key())),
		fmt.Sprintf("%s   PO %s", h.SoldToLabel(), h.CustomerPO),
		h.SoldToName,
		h.SoldToCityLine(),
		"Ship To: " + h.ShipToName,
		h.ShipToAddress1,
		h.ShipToCityLine(),
		fmt.Sprintf("Carrier: %s   Terms: %s   Ship date: %s", h.Carrier, h.FreightTerms, shortDate(h)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func shortDate(h *models.Header) string {
	if h.ShipDate.IsZero() {
		return "-"
	}
	return h.ShipDate.Format("01/02/2006")
}

func units(n int, err error) string {
	if err != nil {
		return "?"
	}
	return fmt.Sprint(n)
}

// Item renders a line item with its notes and packing units
func Item(it layout.PageItem) string {
	h := it.Item.Header
	ordered, oerr := h.OrderedUnits()
	picked, perr := h.PickedUnits()
	back, berr := h.BackOrderedUnits()

	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s  %s", h.LineItemNumber, h.ProductNumber)) + "  " + h.ProductDescription,
		fmt.Sprintf("ordered %s  shipped %s  back-ordered %s", units(ordered, oerr), units(picked, perr), units(back, berr)),
	}
	if len(it.Details) > 0 {
		lines = append(lines, notes(it.Details))
	}
	for _, u := range it.PackingUnits {
		lines = append(lines, fmt.Sprintf("  %d x %s %s  %d lb  truck %s  %s",
			u.Quantity, u.TypeOfUnit, u.CartonOrSkid, u.Weight, orDash(u.TruckNumber), u.ContentsDescription))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func notes(details []models.LineItemDetail) string {
	lines := make([]string, len(details))
	for i, d := range details {
		lines[i] = noteStyle.Render("  " + strings.TrimSpace(d.Note))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// Summary renders the freight summary table with its totals
func Summary(s aggregate.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %-7s %7s %7s %7s %8s %6s %s\n", "Type", "Pkg", "Cartons", "Skids", "Pieces", "Weight", "Class", "NMFC")
	for _, r := range s.Rows {
		fmt.Fprintf(&b, "%-16s %-7s %7d %7d %7d %8d %6s %s\n",
			r.TypeOfUnit, r.CartonOrSkid, r.CartonCount, r.SkidCount, r.TotalPieces, r.TotalWeight, r.FreightClass, r.NMFC)
	}
	fmt.Fprintf(&b, "%-16s %-7s %7s %7s %7d %8d", "Total", "", "", "", s.TotalPieces, s.TotalWeight)
	return b.String()
}

func handlingUnits(hus []models.HandlingUnit) string {
	lines := make([]string, len(hus))
	for i, h := range hus {
		lines[i] = fmt.Sprintf("%-20s %3d units  %6d pcs  %7d lb", h.Name, len(h.Members), h.TotalQuantity, h.TotalWeight)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
