package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseOrderKey(t *testing.T) {
	tests := []struct {
		in      string
		want    OrderKey
		wantErr bool
	}{
		{in: "123456", want: OrderKey{OrderNumber: 123456}},
		{in: "123456-02", want: OrderKey{OrderNumber: 123456, Suffix: 2}},
		{in: " 987-1 ", want: OrderKey{OrderNumber: 987, Suffix: 1}},
		{in: "", wantErr: true},
		{in: "12a456", wantErr: true},
		{in: "1234567890", wantErr: true},
		{in: "123456-", wantErr: true},
		{in: "123456-123", wantErr: true},
		{in: "-12", wantErr: true},
		{in: "+12345", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseOrderKey(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrMalformedOrderKey) {
				t.Errorf("ParseOrderKey(%q) error = %v, want ErrMalformedOrderKey", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseOrderKey(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOrderKey(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestOrderKeyString(t *testing.T) {
	if got := (OrderKey{OrderNumber: 4521, Suffix: 3}).String(); got != "4521-03" {
		t.Errorf("String() = %q", got)
	}
}

func TestWholeUnits(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "12.9", want: 12},
		{in: "-3.5", want: -3},
		{in: "0", want: 0},
		{in: "2147483647.99", want: 2147483647},
		{in: "2147483648", wantErr: true},
		{in: "-2147483649", wantErr: true},
		{in: "99999999999999", wantErr: true},
	}
	for _, tt := range tests {
		got, err := WholeUnits(decimal.RequireFromString(tt.in))
		if tt.wantErr {
			if !errors.Is(err, ErrQuantityOverflow) {
				t.Errorf("WholeUnits(%s) error = %v, want overflow", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("WholeUnits(%s) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestDetailFlags(t *testing.T) {
	d := LineItemDetail{PackingListFlag: "y", BolFlag: "N", Note: "  "}
	if !d.OnPackingList() {
		t.Error("lowercase y should print on packing list")
	}
	if d.OnBol() {
		t.Error("N should not print on BOL")
	}
	if d.HasText() {
		t.Error("whitespace note should not count as text")
	}

	sub := LineItemDetail{ModelItem: decimal.RequireFromString("950.02")}
	if !sub.ModelItemIs(ShippingNotesModelItem) {
		t.Error("950.02 should belong to the shipping notes line")
	}
}

func TestHeaderDisplayStrings(t *testing.T) {
	h := Header{CustomerNumber: "C1001", ShipToCity: "Wichita", ShipToState: "KS", ShipToZip: "67219"}
	if got := h.SoldToLabel(); got != "Sold To: C1001" {
		t.Errorf("SoldToLabel() = %q", got)
	}
	if got := h.ShipToCityLine(); got != "Wichita, KS  67219" {
		t.Errorf("ShipToCityLine() = %q", got)
	}
}

func TestSortDetails(t *testing.T) {
	details := []LineItemDetail{
		{ModelItem: decimal.RequireFromString("1.02"), NoteSequenceNumber: 1, Note: "c"},
		{ModelItem: decimal.RequireFromString("1.01"), NoteSequenceNumber: 2, Note: "b"},
		{ModelItem: decimal.RequireFromString("1.01"), NoteSequenceNumber: 1, Note: "a"},
	}
	SortDetails(details)
	for i, want := range []string{"a", "b", "c"} {
		if details[i].Note != want {
			t.Fatalf("details[%d] = %q, want %q", i, details[i].Note, want)
		}
	}
}

func TestHandlingUnitTotals(t *testing.T) {
	doc := &Document{LineItems: []LineItem{
		{PackingUnits: []LineItemPackingUnit{
			{ID: 1, Quantity: 2, Weight: 40},
			{ID: 2, Quantity: 1, Weight: 15},
		}},
		{PackingUnits: []LineItemPackingUnit{{ID: 3, Quantity: 4, Weight: 100}}},
	}}
	hu := HandlingUnit{Name: "Pallet 1"}

	if err := hu.Add(doc, 1); err != nil {
		t.Fatal(err)
	}
	if err := hu.Add(doc, 3); err != nil {
		t.Fatal(err)
	}
	if hu.TotalQuantity != 6 || hu.TotalWeight != 140 {
		t.Fatalf("totals = %d/%d, want 6/140", hu.TotalQuantity, hu.TotalWeight)
	}
	if err := hu.Add(doc, 3); err != nil || len(hu.Members) != 2 {
		t.Fatalf("duplicate add changed membership: %v, %d members", err, len(hu.Members))
	}
	if err := hu.Add(doc, 0); !errors.Is(err, ErrUnsavedPackingUnit) {
		t.Fatalf("Add(0) error = %v", err)
	}

	hu.Remove(doc, 1)
	if hu.TotalQuantity != 4 || hu.TotalWeight != 100 {
		t.Fatalf("after remove totals = %d/%d, want 4/100", hu.TotalQuantity, hu.TotalWeight)
	}

	doc.LineItems[1].PackingUnits[0].Weight = 80
	doc.RecomputeHandlingUnits()
	if hu.TotalWeight != 100 {
		t.Fatal("recompute on document must not touch a detached copy")
	}
	doc.HandlingUnits = []HandlingUnit{hu}
	doc.RecomputeHandlingUnits()
	if doc.HandlingUnits[0].TotalWeight != 80 {
		t.Fatalf("TotalWeight = %d, want 80", doc.HandlingUnits[0].TotalWeight)
	}

	doc.LineItems[1].PackingUnits = nil
	doc.RecomputeHandlingUnits()
	if len(doc.HandlingUnits[0].Members) != 0 || doc.HandlingUnits[0].TotalQuantity != 0 {
		t.Fatal("members of deleted packing units should be dropped")
	}
}

func TestPackingUnitValidate(t *testing.T) {
	if err := (&LineItemPackingUnit{Quantity: -1}).Validate(); !errors.Is(err, ErrInvalidPackingUnit) {
		t.Errorf("negative quantity error = %v", err)
	}
	if err := (&LineItemPackingUnit{Weight: -1}).Validate(); !errors.Is(err, ErrInvalidPackingUnit) {
		t.Errorf("negative weight error = %v", err)
	}
	if err := (&LineItemPackingUnit{Quantity: 1, Weight: 2}).Validate(); err != nil {
		t.Errorf("valid unit error = %v", err)
	}
}

func TestDocumentValidateDuplicateLineNumbers(t *testing.T) {
	doc := &Document{LineItems: []LineItem{
		{Header: LineItemHeader{LineItemNumber: decimal.RequireFromString("1.0")}},
		{Header: LineItemHeader{LineItemNumber: decimal.RequireFromString("2")}},
	}}
	if err := doc.Validate(); err != nil {
		t.Fatalf("distinct numbers: %v", err)
	}
	doc.LineItems[1].Header.LineItemNumber = decimal.NewFromInt(1)
	if err := doc.Validate(); !errors.Is(err, ErrDuplicateLineItem) {
		t.Errorf("duplicate numbers error = %v", err)
	}
}
