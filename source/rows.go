package source

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

// OrderRows is one order as returned by the order-management gateway
type OrderRows struct {
	Header HeaderRow `json:"header"`
	Lines  []LineRow `json:"lines"`
	Notes  []NoteRow `json:"notes"`
}

// HeaderRow is the order header row
type HeaderRow struct {
	OrderNumber    int       `json:"order_number"`
	Suffix         int       `json:"suffix"`
	CustomerNumber string    `json:"customer_number"`
	CustomerPO     string    `json:"customer_po"`
	SoldToName     string    `json:"sold_to_name"`
	SoldToAddress1 string    `json:"sold_to_address1"`
	SoldToAddress2 string    `json:"sold_to_address2"`
	SoldToCity     string    `json:"sold_to_city"`
	SoldToState    string    `json:"sold_to_state"`
	SoldToZip      string    `json:"sold_to_zip"`
	ShipToName     string    `json:"ship_to_name"`
	ShipToAddress1 string    `json:"ship_to_address1"`
	ShipToAddress2 string    `json:"ship_to_address2"`
	ShipToCity     string    `json:"ship_to_city"`
	ShipToState    string    `json:"ship_to_state"`
	ShipToZip      string    `json:"ship_to_zip"`
	OrderDate      time.Time `json:"order_date"`
	ShipDate       time.Time `json:"ship_date"`
	FreightTerms   string    `json:"freight_terms"`
	Carrier        string    `json:"carrier"`
	TrackingNumber string    `json:"tracking_number"`
}

// LineRow is one order line
type LineRow struct {
	LineNumber          decimal.Decimal `json:"line_number"`
	ProductNumber       string          `json:"product_number"`
	ProductDescription  string          `json:"product_description"`
	QuantityOrdered     decimal.Decimal `json:"quantity_ordered"`
	QuantityPicked      decimal.Decimal `json:"quantity_picked"`
	QuantityBackOrdered decimal.Decimal `json:"quantity_back_ordered"`
}

// NoteRow is one floating or line-attached note
type NoteRow struct {
	ModelItem       decimal.Decimal `json:"model_item"`
	Sequence        int             `json:"sequence"`
	Text            string          `json:"text"`
	PackingListFlag string          `json:"packing_list_flag"`
	BolFlag         string          `json:"bol_flag"`
}

// MapOrder builds the document tree for one order. Each note attaches to the
// line with the same number, else to the line matching its integer part,
// else to a synthesized notes line: 950 for shipping notes and 0 for
// everything else.
func MapOrder(rows OrderRows) (*models.Document, error) {
	doc := &models.Document{Header: mapHeader(rows.Header)}

	byNumber := make(map[string]int, len(rows.Lines))
	for _, l := range rows.Lines {
		k := l.LineNumber.String()
		if _, dup := byNumber[k]; dup {
			return nil, fmt.Errorf("order %s: duplicate line number %s", doc.Header.Key(), k)
		}
		byNumber[k] = len(doc.LineItems)
		doc.LineItems = append(doc.LineItems, models.LineItem{
			Header: models.LineItemHeader{
				LineItemNumber:      l.LineNumber,
				ProductNumber:       l.ProductNumber,
				ProductDescription:  l.ProductDescription,
				QuantityOrdered:     l.QuantityOrdered,
				QuantityPicked:      l.QuantityPicked,
				QuantityBackOrdered: l.QuantityBackOrdered,
			},
			Details:      []models.LineItemDetail{},
			PackingUnits: []models.LineItemPackingUnit{},
		})
	}

	for _, n := range rows.Notes {
		idx, ok := byNumber[n.ModelItem.String()]
		if !ok {
			idx, ok = byNumber[n.ModelItem.Truncate(0).String()]
		}
		if !ok {
			owner := int64(models.OrderNotesModelItem)
			if n.ModelItem.Truncate(0).Equal(decimal.NewFromInt(models.ShippingNotesModelItem)) {
				owner = models.ShippingNotesModelItem
			}
			ownerKey := decimal.NewFromInt(owner).String()
			idx, ok = byNumber[ownerKey]
			if !ok {
				idx = len(doc.LineItems)
				byNumber[ownerKey] = idx
				doc.LineItems = append(doc.LineItems, models.LineItem{
					Header:       models.LineItemHeader{LineItemNumber: decimal.NewFromInt(owner)},
					Details:      []models.LineItemDetail{},
					PackingUnits: []models.LineItemPackingUnit{},
				})
			}
		}
		li := &doc.LineItems[idx]
		li.Details = append(li.Details, models.LineItemDetail{
			ModelItem:          n.ModelItem,
			NoteSequenceNumber: n.Sequence,
			Note:               n.Text,
			PackingListFlag:    n.PackingListFlag,
			BolFlag:            n.BolFlag,
		})
	}

	for i := range doc.LineItems {
		models.SortDetails(doc.LineItems[i].Details)
	}
	doc.SortLineItems()
	return doc, nil
}

func mapHeader(h HeaderRow) *models.Header {
	return &models.Header{
		OrderNumber:    h.OrderNumber,
		Suffix:         h.Suffix,
		CustomerNumber: h.CustomerNumber,
		CustomerPO:     h.CustomerPO,
		SoldToName:     h.SoldToName,
		SoldToAddress1: h.SoldToAddress1,
		SoldToAddress2: h.SoldToAddress2,
		SoldToCity:     h.SoldToCity,
		SoldToState:    h.SoldToState,
		SoldToZip:      h.SoldToZip,
		ShipToName:     h.ShipToName,
		ShipToAddress1: h.ShipToAddress1,
		ShipToAddress2: h.ShipToAddress2,
		ShipToCity:     h.ShipToCity,
		ShipToState:    h.ShipToState,
		ShipToZip:      h.ShipToZip,
		OrderDate:      h.OrderDate,
		ShipDate:       h.ShipDate,
		FreightTerms:   h.FreightTerms,
		Carrier:        h.Carrier,
		TrackingNumber: h.TrackingNumber,
	}
}
