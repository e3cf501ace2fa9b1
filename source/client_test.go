package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

const orderJSON = `{
	"header": {"order_number": 123456, "suffix": 1, "customer_number": "C77", "ship_to_city": "Wichita",
	           "ship_date": "2026-10-16T00:00:00Z", "carrier": "R+L"},
	"lines": [
		{"line_number": "2", "product_number": "CHR-100", "quantity_ordered": "12.000"},
		{"line_number": "1", "product_number": "TBL-3060", "quantity_ordered": "3"},
		{"line_number": "1.01", "product_number": "LEG-KIT", "quantity_ordered": "3"}
	],
	"notes": [
		{"model_item": "1", "sequence": 2, "text": "finish walnut", "packing_list_flag": "Y"},
		{"model_item": "1", "sequence": 1, "text": "begin", "packing_list_flag": "Y"},
		{"model_item": "1.01", "sequence": 1, "text": "legs", "packing_list_flag": "Y"},
		{"model_item": "2.03", "sequence": 1, "text": "arm caps", "packing_list_flag": "Y"},
		{"model_item": "0", "sequence": 1, "text": "call before delivery", "packing_list_flag": "Y"},
		{"model_item": "950", "sequence": 1, "text": "liftgate", "packing_list_flag": "Y", "bol_flag": "Y"},
		{"model_item": "950.01", "sequence": 1, "text": "dock hours 8-4", "bol_flag": "Y"},
		{"model_item": "17", "sequence": 1, "text": "orphan"}
	]
}`

func TestMapOrder(t *testing.T) {
	var rows OrderRows
	if err := json.Unmarshal([]byte(orderJSON), &rows); err != nil {
		t.Fatal(err)
	}
	doc, err := MapOrder(rows)
	if err != nil {
		t.Fatal(err)
	}

	var numbers []string
	for _, li := range doc.LineItems {
		numbers = append(numbers, li.Header.LineItemNumber.String())
	}
	if diff := cmp.Diff([]string{"0", "1", "1.01", "2", "950"}, numbers); diff != "" {
		t.Fatalf("line numbers mismatch (-want +got):\n%s", diff)
	}

	noteTexts := func(li *models.LineItem) []string {
		var out []string
		for _, d := range li.Details {
			out = append(out, d.Note)
		}
		return out
	}
	tests := []struct {
		line string
		want []string
	}{
		{line: "0", want: []string{"call before delivery", "orphan"}},
		{line: "1", want: []string{"begin", "finish walnut"}},
		{line: "1.01", want: []string{"legs"}},
		{line: "2", want: []string{"arm caps"}},
		{line: "950", want: []string{"liftgate", "dock hours 8-4"}},
	}
	for _, tt := range tests {
		li := doc.FindLineItem(decimal.RequireFromString(tt.line))
		if li == nil {
			t.Fatalf("line %s missing", tt.line)
		}
		if diff := cmp.Diff(tt.want, noteTexts(li)); diff != "" {
			t.Errorf("line %s notes mismatch (-want +got):\n%s", tt.line, diff)
		}
		if li.PackingUnits == nil || len(li.PackingUnits) != 0 {
			t.Errorf("line %s should start with no packing units", tt.line)
		}
	}

	if doc.FindLineItem(decimal.Zero).IsPhysical() {
		t.Error("synthesized notes line must not be physical")
	}
	if doc.Header.OrderNumber != 123456 || doc.Header.Suffix != 1 || doc.Header.Carrier != "R+L" {
		t.Errorf("header = %+v", doc.Header)
	}
	if units, err := doc.FindLineItem(decimal.NewFromInt(2)).Header.OrderedUnits(); err != nil || units != 12 {
		t.Errorf("OrderedUnits = %d, %v", units, err)
	}
}

func TestMapOrderDuplicateLine(t *testing.T) {
	rows := OrderRows{Lines: []LineRow{
		{LineNumber: decimal.RequireFromString("1.10")},
		{LineNumber: decimal.RequireFromString("1.1")},
	}}
	if _, err := MapOrder(rows); err == nil || !strings.Contains(err.Error(), "duplicate line number") {
		t.Fatalf("error = %v", err)
	}
}

func TestClientFetchByOrderKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders/123456/1":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(orderJSON))
		case "/orders/500/0":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, cmtlog.NewNopLogger())
	ctx := context.Background()

	doc, found, err := c.FetchByOrderKey(ctx, models.OrderKey{OrderNumber: 123456, Suffix: 1})
	if err != nil || !found {
		t.Fatalf("FetchByOrderKey = found %v, err %v", found, err)
	}
	if len(doc.LineItems) != 5 {
		t.Errorf("got %d line items, want 5", len(doc.LineItems))
	}

	doc, found, err = c.FetchByOrderKey(ctx, models.OrderKey{OrderNumber: 999})
	if err != nil || found || doc != nil {
		t.Errorf("missing order = %v, %v, %v; want not found", doc, found, err)
	}

	if _, _, err := c.FetchByOrderKey(ctx, models.OrderKey{OrderNumber: 500}); err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("server error = %v", err)
	}
}

func TestClientFetchAllShippedOn(t *testing.T) {
	var gotDate string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shipments" {
			http.NotFound(w, r)
			return
		}
		gotDate = r.URL.Query().Get("date")
		w.Write([]byte("[" + orderJSON + "," + orderJSON + "]"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, cmtlog.NewNopLogger())
	docs, err := c.FetchAllShippedOn(context.Background(), time.Date(2026, 10, 16, 15, 4, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if gotDate != "2026-10-16" || len(docs) != 2 {
		t.Errorf("date %q, %d docs", gotDate, len(docs))
	}
}

func TestClientHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/status" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	c := NewClient(srv.URL, time.Second, cmtlog.NewNopLogger())
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck = %v", err)
	}
	srv.Close()
	if err := c.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck on a closed server should fail")
	}
}
