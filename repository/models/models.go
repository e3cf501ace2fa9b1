package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Model item numbers reserved for the synthesized notes lines
const (
	OrderNotesModelItem    = 0
	ShippingNotesModelItem = 950
)

// Document is one order's shipping record (packing list + bill of lading)
type Document struct {
	ID        uint      `gorm:"column:document_id;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relationships
	Header        *Header        `gorm:"foreignKey:DocumentID;references:ID" json:"header"`
	LineItems     []LineItem     `gorm:"foreignKey:DocumentID;references:ID" json:"line_items"`
	HandlingUnits []HandlingUnit `gorm:"foreignKey:DocumentID;references:ID" json:"handling_units"`
}

// Header carries the addresses, dates and carrier data of a document.
// OrderNumber + Suffix is the business key used for reconciliation.
type Header struct {
	ID          uint `gorm:"column:header_id;primaryKey" json:"id"`
	DocumentID  uint `gorm:"column:document_id;not null" json:"document_id"`
	OrderNumber int  `gorm:"column:order_number;not null;uniqueIndex:idx_header_order_key" json:"order_number"`
	Suffix      int  `gorm:"column:suffix;not null;uniqueIndex:idx_header_order_key" json:"suffix"`

	CustomerNumber string `gorm:"column:customer_number;type:varchar(20)" json:"customer_number"`
	CustomerPO     string `gorm:"column:customer_po;type:varchar(50)" json:"customer_po"`

	SoldToName     string `gorm:"column:sold_to_name;type:varchar(100)" json:"sold_to_name"`
	SoldToAddress1 string `gorm:"column:sold_to_address1;type:varchar(100)" json:"sold_to_address1"`
	SoldToAddress2 string `gorm:"column:sold_to_address2;type:varchar(100)" json:"sold_to_address2"`
	SoldToCity     string `gorm:"column:sold_to_city;type:varchar(50)" json:"sold_to_city"`
	SoldToState    string `gorm:"column:sold_to_state;type:varchar(10)" json:"sold_to_state"`
	SoldToZip      string `gorm:"column:sold_to_zip;type:varchar(20)" json:"sold_to_zip"`

	ShipToName     string `gorm:"column:ship_to_name;type:varchar(100)" json:"ship_to_name"`
	ShipToAddress1 string `gorm:"column:ship_to_address1;type:varchar(100)" json:"ship_to_address1"`
	ShipToAddress2 string `gorm:"column:ship_to_address2;type:varchar(100)" json:"ship_to_address2"`
	ShipToCity     string `gorm:"column:ship_to_city;type:varchar(50)" json:"ship_to_city"`
	ShipToState    string `gorm:"column:ship_to_state;type:varchar(10)" json:"ship_to_state"`
	ShipToZip      string `gorm:"column:ship_to_zip;type:varchar(20)" json:"ship_to_zip"`

	OrderDate      time.Time `gorm:"column:order_date" json:"order_date"`
	ShipDate       time.Time `gorm:"column:ship_date;index" json:"ship_date"`
	FreightTerms   string    `gorm:"column:freight_terms;type:varchar(50)" json:"freight_terms"`
	Carrier        string    `gorm:"column:carrier;type:varchar(100)" json:"carrier"`
	TrackingNumber string    `gorm:"column:tracking_number;type:varchar(100)" json:"tracking_number"`

	// Assigned locally, never supplied by the order system
	LogoImagePath string `gorm:"column:logo_image_path;type:varchar(255)" json:"logo_image_path"`
}

// TableName keeps headers distinct from HTTP-ish names
func (Header) TableName() string { return "document_headers" }

// Key returns the business key of the header
func (h *Header) Key() OrderKey {
	return OrderKey{OrderNumber: h.OrderNumber, Suffix: h.Suffix}
}

// SoldToLabel is the "Sold To" caption printed on both forms
func (h *Header) SoldToLabel() string {
	return fmt.Sprintf("Sold To: %s", h.CustomerNumber)
}

// SoldToCityLine formats the sold-to city/state/zip line
func (h *Header) SoldToCityLine() string {
	return cityLine(h.SoldToCity, h.SoldToState, h.SoldToZip)
}

// ShipToCityLine formats the ship-to city/state/zip line
func (h *Header) ShipToCityLine() string {
	return cityLine(h.ShipToCity, h.ShipToState, h.ShipToZip)
}

func cityLine(city, state, zip string) string {
	return fmt.Sprintf("%s, %s  %s", strings.TrimSpace(city), strings.TrimSpace(state), strings.TrimSpace(zip))
}

// LineItem is one ordered product line or a synthesized notes line
type LineItem struct {
	ID         uint           `gorm:"column:line_item_id;primaryKey" json:"id"`
	DocumentID uint           `gorm:"column:document_id;not null;uniqueIndex:idx_line_item_number" json:"document_id"`
	Header     LineItemHeader `gorm:"embedded" json:"header"`

	// Relationships
	Details      []LineItemDetail      `gorm:"foreignKey:LineItemID;references:ID" json:"details"`
	PackingUnits []LineItemPackingUnit `gorm:"foreignKey:LineItemID;references:ID" json:"packing_units"`
}

// IsPhysical reports whether the line is a real product (not a notes line)
func (li *LineItem) IsPhysical() bool {
	return strings.TrimSpace(li.Header.ProductNumber) != ""
}

// LineItemHeader holds the product data of a line. Quantities stay decimal
// as delivered by the order system.
type LineItemHeader struct {
	LineItemNumber      decimal.Decimal `gorm:"column:line_item_number;type:numeric(9,3);not null;uniqueIndex:idx_line_item_number" json:"line_item_number"`
	ProductNumber       string          `gorm:"column:product_number;type:varchar(50)" json:"product_number"`
	ProductDescription  string          `gorm:"column:product_description;type:varchar(255)" json:"product_description"`
	QuantityOrdered     decimal.Decimal `gorm:"column:quantity_ordered;type:numeric(14,3)" json:"quantity_ordered"`
	QuantityPicked      decimal.Decimal `gorm:"column:quantity_picked;type:numeric(14,3)" json:"quantity_picked"`
	QuantityBackOrdered decimal.Decimal `gorm:"column:quantity_back_ordered;type:numeric(14,3)" json:"quantity_back_ordered"`
}

// OrderedUnits is the ordered quantity truncated to whole units
func (h LineItemHeader) OrderedUnits() (int, error) { return WholeUnits(h.QuantityOrdered) }

// PickedUnits is the picked quantity truncated to whole units
func (h LineItemHeader) PickedUnits() (int, error) { return WholeUnits(h.QuantityPicked) }

// BackOrderedUnits is the back-ordered quantity truncated to whole units
func (h LineItemHeader) BackOrderedUnits() (int, error) { return WholeUnits(h.QuantityBackOrdered) }

// LineItemDetail is one note row under a line
type LineItemDetail struct {
	ID                 uint            `gorm:"column:line_item_detail_id;primaryKey" json:"id"`
	LineItemID         uint            `gorm:"column:line_item_id;not null;index" json:"line_item_id"`
	ModelItem          decimal.Decimal `gorm:"column:model_item;type:numeric(9,3);not null" json:"model_item"`
	NoteSequenceNumber int             `gorm:"column:note_sequence_number;not null" json:"note_sequence_number"`
	Note               string          `gorm:"column:note;type:text" json:"note"`
	PackingListFlag    string          `gorm:"column:packing_list_flag;type:varchar(1)" json:"packing_list_flag"`
	BolFlag            string          `gorm:"column:bol_flag;type:varchar(1)" json:"bol_flag"`
}

// OnPackingList reports whether the note prints on the packing list
func (d *LineItemDetail) OnPackingList() bool { return isYes(d.PackingListFlag) }

// OnBol reports whether the note prints on the bill of lading
func (d *LineItemDetail) OnBol() bool { return isYes(d.BolFlag) }

// HasText reports whether the note carries any printable text
func (d *LineItemDetail) HasText() bool { return strings.TrimSpace(d.Note) != "" }

// ModelItemIs reports whether the integer part of the model item equals n
func (d *LineItemDetail) ModelItemIs(n int64) bool {
	return d.ModelItem.Truncate(0).Equal(decimal.NewFromInt(n))
}

func isYes(flag string) bool {
	return strings.EqualFold(strings.TrimSpace(flag), "Y")
}

// LineItemPackingUnit is one physical package entered by the user
type LineItemPackingUnit struct {
	ID                  uint   `gorm:"column:packing_unit_id;primaryKey" json:"id"`
	LineItemID          uint   `gorm:"column:line_item_id;not null;index" json:"line_item_id"`
	Quantity            int    `gorm:"column:quantity;not null" json:"quantity"`
	TypeOfUnit          string `gorm:"column:type_of_unit;type:varchar(50)" json:"type_of_unit"`
	CartonOrSkid        string `gorm:"column:carton_or_skid;type:varchar(20)" json:"carton_or_skid"`
	ContentsDescription string `gorm:"column:contents_description;type:varchar(255)" json:"contents_description"`
	Weight              int    `gorm:"column:weight;not null" json:"weight"`
	TruckNumber         string `gorm:"column:truck_number;type:varchar(20)" json:"truck_number"`
}

// Validate rejects negative quantities and weights
func (u *LineItemPackingUnit) Validate() error {
	if u.Quantity < 0 {
		return fmt.Errorf("%w: quantity %d", ErrInvalidPackingUnit, u.Quantity)
	}
	if u.Weight < 0 {
		return fmt.Errorf("%w: weight %d", ErrInvalidPackingUnit, u.Weight)
	}
	return nil
}

// Options offered for LineItemPackingUnit.CartonOrSkid
var CartonOrSkidOptions = []string{"Carton", "Skid"}

// Options offered for LineItemPackingUnit.TypeOfUnit. The order matches the
// freight classification table.
var UnitTypes = []string{
	"Chairs",
	"Stack Chairs",
	"Lounge Seating",
	"Tables",
	"Table Tops",
	"Table Bases",
	"Panels",
	"Storage",
	"Parts",
}
