package render

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Versteel/Shipping-Form-Creator-sub000/aggregate"
	"github.com/Versteel/Shipping-Form-Creator-sub000/layout"
	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

func renderDoc() *models.Document {
	return &models.Document{
		Header: &models.Header{OrderNumber: 4521, Suffix: 2, CustomerNumber: "C100", Carrier: "Estes", ShipToName: "Wichita High", ShipToCity: "Wichita", ShipToState: "KS", ShipToZip: "67219"},
		LineItems: []models.LineItem{
			{
				ID: 1,
				Header: models.LineItemHeader{
					LineItemNumber:  decimal.NewFromInt(1),
					ProductNumber:   "TBL-3060",
					QuantityOrdered: decimal.RequireFromString("4.6"),
				},
				PackingUnits: []models.LineItemPackingUnit{{ID: 5, Quantity: 4, Weight: 200, TypeOfUnit: "Tables", CartonOrSkid: "Skid", TruckNumber: "T1"}},
			},
			{
				Header: models.LineItemHeader{LineItemNumber: decimal.NewFromInt(950)},
				Details: []models.LineItemDetail{
					{ModelItem: decimal.NewFromInt(950), NoteSequenceNumber: 1, Note: "Call before delivery", PackingListFlag: "Y"},
				},
			},
		},
	}
}

func TestPages(t *testing.T) {
	doc := renderDoc()
	out := Pages(layout.Paginate(doc, models.ViewAll, layout.DefaultOptions(), aggregate.DefaultTable()))

	for _, want := range []string{
		"Packing List  4521-02",
		"Sold To: C100",
		"Wichita, KS  67219",
		"TBL-3060",
		"ordered 4",
		"4 x Tables Skid  200 lb  truck T1",
		"Call before delivery",
		"Freight summary",
		"Page 1 of 2",
		"Page 2 of 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered pages missing %q:\n%s", want, out)
		}
	}
}

func TestSummary(t *testing.T) {
	s := aggregate.Summarize(renderDoc(), aggregate.DefaultTable())
	out := Summary(s)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, one row and totals:\n%s", out)
	}
	if !strings.HasPrefix(lines[1], "Tables") || !strings.Contains(lines[1], "079300-09") {
		t.Errorf("row = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "Total") || !strings.HasSuffix(lines[2], "200") {
		t.Errorf("totals = %q", lines[2])
	}
}

func TestUnitsOverflow(t *testing.T) {
	it := layout.PageItem{Item: &models.LineItem{Header: models.LineItemHeader{
		LineItemNumber:  decimal.NewFromInt(1),
		QuantityOrdered: decimal.RequireFromString("1e12"),
	}}}
	if out := Item(it); !strings.Contains(out, "ordered ?") {
		t.Errorf("overflowing quantity should print as unknown:\n%s", out)
	}
}
