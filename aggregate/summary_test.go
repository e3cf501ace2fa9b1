package aggregate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

func docWithUnits(units ...[]models.LineItemPackingUnit) *models.Document {
	doc := &models.Document{}
	for _, u := range units {
		doc.LineItems = append(doc.LineItems, models.LineItem{PackingUnits: u})
	}
	return doc
}

func TestSummarizeGroupsAndTotals(t *testing.T) {
	doc := docWithUnits(
		[]models.LineItemPackingUnit{
			{Quantity: 4, TypeOfUnit: "Chairs", CartonOrSkid: "Carton", Weight: 120, TruckNumber: "1"},
			{Quantity: 1, TypeOfUnit: "Chairs", CartonOrSkid: "Skid", Weight: 300, TruckNumber: "2"},
		},
		[]models.LineItemPackingUnit{
			{Quantity: 2, TypeOfUnit: "Chairs", CartonOrSkid: "Carton", Weight: 60, TruckNumber: "1"},
			{Quantity: 3, TypeOfUnit: "Widgets", CartonOrSkid: "", Weight: 9},
			{Quantity: 5, TypeOfUnit: "  ", CartonOrSkid: "carton", Weight: 10},
		},
	)

	got := Summarize(doc, DefaultTable())
	want := Summary{
		Rows: []BolSummaryRow{
			{TypeOfUnit: "Chairs", CartonOrSkid: "Carton", CartonCount: 6, TotalPieces: 6, TotalWeight: 180, FreightClass: "175", NMFC: "079300-12"},
			{TypeOfUnit: "Chairs", CartonOrSkid: "Skid", SkidCount: 1, TotalPieces: 1, TotalWeight: 300, FreightClass: "175", NMFC: "079300-12"},
			{TypeOfUnit: "Unknown", CartonOrSkid: "carton", CartonCount: 5, TotalPieces: 5, TotalWeight: 10, FreightClass: "0", NMFC: "000000-00"},
			{TypeOfUnit: "Widgets", CartonOrSkid: "Unknown", TotalPieces: 3, TotalWeight: 9, FreightClass: "0", NMFC: "000000-00"},
		},
		TotalPieces: 15,
		TotalWeight: 499,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeTotalsMatchUnits(t *testing.T) {
	docs := []*models.Document{
		{},
		docWithUnits(nil, []models.LineItemPackingUnit{}),
		docWithUnits([]models.LineItemPackingUnit{{Quantity: 7, Weight: 1}}, []models.LineItemPackingUnit{{Quantity: 0, Weight: 0, TypeOfUnit: "Parts"}}),
	}
	for i, doc := range docs {
		got := Summarize(doc, DefaultTable())
		pieces, weight := 0, 0
		for _, u := range doc.AllPackingUnits() {
			pieces += u.Quantity
			weight += u.Weight
		}
		rowPieces := 0
		for _, r := range got.Rows {
			rowPieces += r.TotalPieces
		}
		if got.TotalPieces != pieces || rowPieces != pieces || got.TotalWeight != weight {
			t.Errorf("doc %d: totals %d/%d (rows %d), want %d/%d", i, got.TotalPieces, got.TotalWeight, rowPieces, pieces, weight)
		}
		if got.Rows == nil {
			t.Errorf("doc %d: rows should be an empty slice, not nil", i)
		}
	}
}

func TestSummarizeRecomputesAfterEdit(t *testing.T) {
	doc := docWithUnits([]models.LineItemPackingUnit{{Quantity: 1, Weight: 10, TypeOfUnit: "Tables", CartonOrSkid: "Skid"}})
	if s := Summarize(doc, DefaultTable()); s.TotalPieces != 1 {
		t.Fatalf("TotalPieces = %d", s.TotalPieces)
	}
	doc.LineItems[0].PackingUnits = append(doc.LineItems[0].PackingUnits, models.LineItemPackingUnit{Quantity: 2, Weight: 5, TypeOfUnit: "Tables", CartonOrSkid: "Skid"})
	s := Summarize(doc, DefaultTable())
	if s.TotalPieces != 3 || s.TotalWeight != 15 || s.Rows[0].SkidCount != 3 {
		t.Fatalf("after edit: %+v", s)
	}
}

func TestSummarizeView(t *testing.T) {
	doc := docWithUnits([]models.LineItemPackingUnit{
		{Quantity: 4, TypeOfUnit: "Chairs", CartonOrSkid: "Carton", Weight: 120, TruckNumber: "T1"},
		{Quantity: 1, TypeOfUnit: "Chairs", CartonOrSkid: "Skid", Weight: 300, TruckNumber: "t2"},
	})
	s := SummarizeView(doc, "T2", DefaultTable())
	if s.TotalPieces != 1 || len(s.Rows) != 1 || s.Rows[0].CartonOrSkid != "Skid" {
		t.Errorf("SummarizeView(T2) = %+v", s)
	}
	if all := SummarizeView(doc, models.ViewAll, DefaultTable()); all.TotalPieces != 5 {
		t.Errorf("SummarizeView(ALL) pieces = %d", all.TotalPieces)
	}
}

func TestTableLookup(t *testing.T) {
	table := DefaultTable()
	if class, nmfc := table.Lookup("Stack Chairs"); class != "150" || nmfc != "079300-11" {
		t.Errorf("Lookup(Stack Chairs) = %s/%s", class, nmfc)
	}
	if class, nmfc := table.Lookup("stack chairs"); class != UnknownFreightClass || nmfc != UnknownNMFC {
		t.Errorf("lookup should be exact, got %s/%s", class, nmfc)
	}
}

func TestDefaultTableCoversUnitTypes(t *testing.T) {
	table := DefaultTable()
	for _, ut := range models.UnitTypes {
		if class, _ := table.Lookup(ut); class == UnknownFreightClass {
			t.Errorf("unit type %q has no classification", ut)
		}
	}
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "freight.yaml")
	data := `classifications:
  - category: Crates
    freight_class: "70"
    nmfc: 012345-01
  - category: Chairs
    freight_class: "150"
    nmfc: 079300-11
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if class, nmfc := table.Lookup("Crates"); class != "70" || nmfc != "012345-01" {
		t.Errorf("Lookup(Crates) = %s/%s", class, nmfc)
	}
	if class, _ := table.Lookup("Tables"); class != UnknownFreightClass {
		t.Errorf("loaded table should replace the default, Tables = %s", class)
	}
}

func TestParseTableErrors(t *testing.T) {
	tests := map[string]string{
		"empty":     "classifications: []\n",
		"duplicate": "classifications:\n  - category: A\n  - category: A\n",
		"nameless":  "classifications:\n  - freight_class: \"50\"\n",
		"invalid":   "classifications: [\n",
	}
	for name, data := range tests {
		if _, err := ParseTable([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		} else if !strings.Contains(err.Error(), "freight table") {
			t.Errorf("%s: error %q lacks context", name, err)
		}
	}
}
