// Package aggregate computes the freight summary printed on the bill of
// lading: one row per (unit type, carton-or-skid) pair plus grand totals.
package aggregate

import (
	"sort"
	"strings"

	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

// Unknown replaces a blank grouping key
const Unknown = "Unknown"

// BolSummaryRow is one freight-summary line of the bill of lading
type BolSummaryRow struct {
	TypeOfUnit   string `json:"type_of_unit"`
	CartonOrSkid string `json:"carton_or_skid"`
	CartonCount  int    `json:"carton_count"`
	SkidCount    int    `json:"skid_count"`
	TotalPieces  int    `json:"total_pieces"`
	TotalWeight  int    `json:"total_weight"`
	FreightClass string `json:"freight_class"`
	NMFC         string `json:"nmfc"`
}

// Summary is the freight summary with its grand totals
type Summary struct {
	Rows        []BolSummaryRow `json:"rows"`
	TotalPieces int             `json:"total_pieces"`
	TotalWeight int             `json:"total_weight"`
}

type groupKey struct {
	unitType     string
	cartonOrSkid string
}

// Summarize groups every packing unit of the document
func Summarize(doc *models.Document, table Table) Summary {
	if doc == nil {
		return Summary{Rows: []BolSummaryRow{}}
	}
	return SummarizeUnits(doc.AllPackingUnits(), table)
}

// SummarizeView groups only the units loaded on one truck ("ALL" for every unit)
func SummarizeView(doc *models.Document, view string, table Table) Summary {
	if doc == nil {
		return Summary{Rows: []BolSummaryRow{}}
	}
	var units []models.LineItemPackingUnit
	for _, u := range doc.AllPackingUnits() {
		if models.MatchesView(u, view) {
			units = append(units, u)
		}
	}
	return SummarizeUnits(units, table)
}

// SummarizeUnits groups the given packing units
func SummarizeUnits(units []models.LineItemPackingUnit, table Table) Summary {
	groups := make(map[groupKey]*BolSummaryRow)
	for _, u := range units {
		k := groupKey{unitType: orUnknown(u.TypeOfUnit), cartonOrSkid: orUnknown(u.CartonOrSkid)}
		row, ok := groups[k]
		if !ok {
			row = &BolSummaryRow{TypeOfUnit: k.unitType, CartonOrSkid: k.cartonOrSkid}
			row.FreightClass, row.NMFC = table.Lookup(k.unitType)
			groups[k] = row
		}
		switch {
		case strings.EqualFold(u.CartonOrSkid, "Carton"):
			row.CartonCount += u.Quantity
		case strings.EqualFold(u.CartonOrSkid, "Skid"):
			row.SkidCount += u.Quantity
		}
		row.TotalPieces += u.Quantity
		row.TotalWeight += u.Weight
	}

	s := Summary{Rows: make([]BolSummaryRow, 0, len(groups))}
	for _, row := range groups {
		s.Rows = append(s.Rows, *row)
	}
	sort.Slice(s.Rows, func(i, j int) bool {
		if s.Rows[i].TypeOfUnit != s.Rows[j].TypeOfUnit {
			return s.Rows[i].TypeOfUnit < s.Rows[j].TypeOfUnit
		}
		return s.Rows[i].CartonOrSkid < s.Rows[j].CartonOrSkid
	})
	for _, row := range s.Rows {
		s.TotalPieces += row.TotalPieces
		s.TotalWeight += row.TotalWeight
	}
	return s
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}
	return s
}
