package reconcile

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

func num(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(number, product string) models.LineItem {
	return models.LineItem{Header: models.LineItemHeader{
		LineItemNumber:  num(number),
		ProductNumber:   product,
		QuantityOrdered: num("1"),
	}}
}

func canonicalDoc() *models.Document {
	l1 := line("1", "TBL-3060")
	l1.Header.ProductDescription = "Table 30x60 (new description)"
	l1.Details = []models.LineItemDetail{{ModelItem: num("1"), NoteSequenceNumber: 1, Note: "fresh note", PackingListFlag: "Y"}}
	l2 := line("1.01", "LEG-KIT")
	l3 := line("2", "CHR-100")
	return &models.Document{
		Header: &models.Header{
			OrderNumber:    123456,
			Suffix:         1,
			Carrier:        "New Carrier",
			TrackingNumber: "TRK-NEW",
		},
		LineItems: []models.LineItem{l1, l2, l3},
	}
}

func cachedDoc() *models.Document {
	l1 := line("1.00", "TBL-3060")
	l1.ID = 11
	l1.Header.ProductDescription = "Table 30x60 (old description)"
	l1.Details = []models.LineItemDetail{{ID: 99, Note: "stale note", PackingListFlag: "Y"}}
	l1.PackingUnits = []models.LineItemPackingUnit{
		{ID: 501, LineItemID: 11, Quantity: 2, TypeOfUnit: "Tables", CartonOrSkid: "Carton", Weight: 80, TruckNumber: "T1"},
	}
	l2 := line("1.010", "LEG-KIT")
	l2.ID = 12
	l2.PackingUnits = []models.LineItemPackingUnit{}
	gone := line("7", "OLD-LINE")
	gone.ID = 17
	gone.PackingUnits = []models.LineItemPackingUnit{{ID: 777, Quantity: 1}}
	return &models.Document{
		ID: 5,
		Header: &models.Header{
			ID:            8,
			DocumentID:    5,
			OrderNumber:   123456,
			Suffix:        1,
			Carrier:       "Old Carrier",
			LogoImagePath: "logos/special.png",
		},
		LineItems: []models.LineItem{l1, l2, gone},
		HandlingUnits: []models.HandlingUnit{
			{ID: 3, DocumentID: 5, Name: "Pallet A", TotalQuantity: 99, Members: []models.HandlingUnitMember{{ID: 1, HandlingUnitID: 3, PackingUnitID: 501}, {ID: 2, HandlingUnitID: 3, PackingUnitID: 777}}},
		},
	}
}

func TestReconcileFirstLoadReturnsCanonical(t *testing.T) {
	canonical := canonicalDoc()
	got, err := Reconcile(canonical, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != canonical {
		t.Fatal("first load should return the canonical document itself")
	}
}

func TestReconcilePreservesIdentityAndPackingUnits(t *testing.T) {
	canonical := canonicalDoc()
	cached := cachedDoc()

	got, err := Reconcile(canonical, cached)
	if err != nil {
		t.Fatal(err)
	}

	if got.ID != 5 || got.Header.ID != 8 {
		t.Errorf("ids = doc %d header %d, want 5/8", got.ID, got.Header.ID)
	}
	if got.Header.LogoImagePath != "logos/special.png" {
		t.Errorf("LogoImagePath = %q", got.Header.LogoImagePath)
	}

	l1 := got.LineItems[0]
	if l1.ID != 11 {
		t.Errorf("line 1 id = %d, want 11", l1.ID)
	}
	if diff := cmp.Diff(cached.LineItems[0].PackingUnits, l1.PackingUnits); diff != "" {
		t.Errorf("line 1 packing units mismatch (-cached +got):\n%s", diff)
	}
	if &l1.PackingUnits[0] != &cached.LineItems[0].PackingUnits[0] {
		t.Error("packing units should be moved by reference")
	}

	l2 := got.LineItems[1]
	if l2.ID != 12 || l2.PackingUnits == nil || len(l2.PackingUnits) != 0 {
		t.Errorf("line 1.01 = id %d units %v, want id 12 and empty units", l2.ID, l2.PackingUnits)
	}
}

func TestReconcileDescriptivePrecedence(t *testing.T) {
	canonical := canonicalDoc()
	got, err := Reconcile(canonical, cachedDoc())
	if err != nil {
		t.Fatal(err)
	}

	wantHeader := *canonical.Header
	wantHeader.ID = 8
	wantHeader.DocumentID = 5
	wantHeader.LogoImagePath = "logos/special.png"
	if diff := cmp.Diff(wantHeader, *got.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	for i := range canonical.LineItems {
		if diff := cmp.Diff(canonical.LineItems[i].Header, got.LineItems[i].Header); diff != "" {
			t.Errorf("line %d header mismatch (-canonical +got):\n%s", i, diff)
		}
	}
	if len(got.LineItems[0].Details) != 1 || got.LineItems[0].Details[0].Note != "fresh note" {
		t.Errorf("details should come from canonical, got %+v", got.LineItems[0].Details)
	}
	if got.LineItems[0].Details[0].LineItemID != 11 {
		t.Errorf("detail should point at the preserved line id")
	}
}

func TestReconcileNewItemPassThrough(t *testing.T) {
	got, err := Reconcile(canonicalDoc(), cachedDoc())
	if err != nil {
		t.Fatal(err)
	}
	l3 := got.LineItems[2]
	if l3.ID != 0 {
		t.Errorf("new line id = %d, want 0", l3.ID)
	}
	if l3.PackingUnits == nil || len(l3.PackingUnits) != 0 {
		t.Errorf("new line packing units = %v, want empty", l3.PackingUnits)
	}
	if len(got.LineItems) != 3 {
		t.Errorf("cached-only lines must not survive, got %d lines", len(got.LineItems))
	}
}

func TestReconcileHandlingUnitsRecomputed(t *testing.T) {
	cached := cachedDoc()
	got, err := Reconcile(canonicalDoc(), cached)
	if err != nil {
		t.Fatal(err)
	}
	hu := got.HandlingUnits[0]
	if hu.TotalQuantity != 2 || hu.TotalWeight != 80 {
		t.Errorf("handling unit totals = %d/%d, want 2/80", hu.TotalQuantity, hu.TotalWeight)
	}
	if len(hu.Members) != 1 {
		t.Errorf("member of dropped line should be removed, got %d members", len(hu.Members))
	}
	if len(cached.HandlingUnits[0].Members) != 2 || cached.HandlingUnits[0].TotalQuantity != 99 {
		t.Error("cached handling units must not be modified")
	}
}

func TestReconcileMissingCachedHeader(t *testing.T) {
	cached := cachedDoc()
	cached.Header = nil
	canonical := canonicalDoc()

	got, err := Reconcile(canonical, cached)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(*canonical.Header, *got.Header, cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".DocumentID"
	}, cmp.Ignore())); diff != "" {
		t.Errorf("header should be canonical in full (-want +got):\n%s", diff)
	}
	if got.ID != 5 || got.LineItems[0].ID != 11 {
		t.Error("line identity should still be preserved")
	}
}

func TestReconcileAmbiguousCachedLine(t *testing.T) {
	cached := cachedDoc()
	dup := line("1.0", "TBL-3060")
	dup.ID = 42
	cached.LineItems = append(cached.LineItems, dup)

	_, err := Reconcile(canonicalDoc(), cached)
	if !errors.Is(err, ErrAmbiguousLineItem) {
		t.Fatalf("error = %v, want ErrAmbiguousLineItem", err)
	}
	var amb *AmbiguousLineItemError
	if !errors.As(err, &amb) || amb.Number != "1" {
		t.Fatalf("error = %#v, want line 1", err)
	}
}

func TestReconcileDoesNotMutateCanonical(t *testing.T) {
	canonical := canonicalDoc()
	_, err := Reconcile(canonical, cachedDoc())
	if err != nil {
		t.Fatal(err)
	}
	if canonical.ID != 0 || canonical.Header.ID != 0 || canonical.LineItems[0].ID != 0 {
		t.Error("canonical document was modified")
	}
	if len(canonical.LineItems[0].PackingUnits) != 0 {
		t.Error("canonical line items gained packing units")
	}
}
