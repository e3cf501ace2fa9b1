package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrMalformedOrderKey  = errors.New("malformed order key")
	ErrQuantityOverflow   = errors.New("quantity out of integer range")
	ErrInvalidPackingUnit = errors.New("invalid packing unit")
	ErrUnsavedPackingUnit = errors.New("packing unit has not been saved")
	ErrDuplicateLineItem  = errors.New("duplicate line item number")
)

// OrderKey is the durable business key of a document
type OrderKey struct {
	OrderNumber int
	Suffix      int
}

func (k OrderKey) String() string {
	return fmt.Sprintf("%d-%02d", k.OrderNumber, k.Suffix)
}

// ParseOrderKey accepts "NNNNNN" or "NNNNNN-SS". The order number is 1 to 9
// digits and the suffix 1 or 2 digits; the suffix defaults to 0.
func ParseOrderKey(raw string) (OrderKey, error) {
	s := strings.TrimSpace(raw)
	orderPart, suffixPart, hasSuffix := strings.Cut(s, "-")

	order, err := parseDigits(orderPart, 9)
	if err != nil {
		return OrderKey{}, fmt.Errorf("%w %q: order number %v", ErrMalformedOrderKey, raw, err)
	}
	key := OrderKey{OrderNumber: order}
	if hasSuffix {
		suffix, err := parseDigits(suffixPart, 2)
		if err != nil {
			return OrderKey{}, fmt.Errorf("%w %q: suffix %v", ErrMalformedOrderKey, raw, err)
		}
		key.Suffix = suffix
	}
	return key, nil
}

func parseDigits(s string, maxLen int) (int, error) {
	if s == "" {
		return 0, errors.New("is empty")
	}
	if len(s) > maxLen {
		return 0, fmt.Errorf("longer than %d digits", maxLen)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.New("is not numeric")
		}
	}
	return strconv.Atoi(s)
}

var (
	minUnits = decimal.NewFromInt(math.MinInt32)
	maxUnits = decimal.NewFromInt(math.MaxInt32)
)

// WholeUnits truncates a source quantity toward zero. Values outside the
// 32-bit range fail with ErrQuantityOverflow instead of wrapping.
func WholeUnits(q decimal.Decimal) (int, error) {
	t := q.Truncate(0)
	if t.LessThan(minUnits) || t.GreaterThan(maxUnits) {
		return 0, fmt.Errorf("%w: %s", ErrQuantityOverflow, q.String())
	}
	return int(t.IntPart()), nil
}

// Key returns the business key, false when the document has no header
func (d *Document) Key() (OrderKey, bool) {
	if d == nil || d.Header == nil {
		return OrderKey{}, false
	}
	return d.Header.Key(), true
}

// FindLineItem returns the line item with the given number, or nil
func (d *Document) FindLineItem(number decimal.Decimal) *LineItem {
	for i := range d.LineItems {
		if d.LineItems[i].Header.LineItemNumber.Equal(number) {
			return &d.LineItems[i]
		}
	}
	return nil
}

// AllPackingUnits flattens every packing unit of every line item
func (d *Document) AllPackingUnits() []LineItemPackingUnit {
	var units []LineItemPackingUnit
	for _, li := range d.LineItems {
		units = append(units, li.PackingUnits...)
	}
	return units
}

// PackingUnitByID looks up a packing unit anywhere in the tree
func (d *Document) PackingUnitByID(id uint) (*LineItemPackingUnit, bool) {
	if id == 0 {
		return nil, false
	}
	for i := range d.LineItems {
		for j := range d.LineItems[i].PackingUnits {
			if d.LineItems[i].PackingUnits[j].ID == id {
				return &d.LineItems[i].PackingUnits[j], true
			}
		}
	}
	return nil, false
}

// Validate checks that line-item numbers are unique within the document and
// that every packing unit is well formed
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.LineItems))
	for _, li := range d.LineItems {
		n := li.Header.LineItemNumber.String()
		if seen[n] {
			return fmt.Errorf("%w: %s", ErrDuplicateLineItem, n)
		}
		seen[n] = true
	}
	for _, li := range d.LineItems {
		for _, u := range li.PackingUnits {
			if err := u.Validate(); err != nil {
				return fmt.Errorf("line %s: %w", li.Header.LineItemNumber.String(), err)
			}
		}
	}
	return nil
}

// SortLineItems orders line items by line-item number ascending
func (d *Document) SortLineItems() {
	sort.SliceStable(d.LineItems, func(i, j int) bool {
		return d.LineItems[i].Header.LineItemNumber.LessThan(d.LineItems[j].Header.LineItemNumber)
	})
}

// SortDetails orders notes by model item, then note sequence
func SortDetails(details []LineItemDetail) {
	sort.SliceStable(details, func(i, j int) bool {
		if !details[i].ModelItem.Equal(details[j].ModelItem) {
			return details[i].ModelItem.LessThan(details[j].ModelItem)
		}
		return details[i].NoteSequenceNumber < details[j].NoteSequenceNumber
	})
}

// ViewAll is the view filter that shows every truck
const ViewAll = "ALL"

// MatchesView reports whether a packing unit is visible in a truck view.
// Truck labels compare case-insensitively.
func MatchesView(u LineItemPackingUnit, view string) bool {
	if view == ViewAll {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(u.TruckNumber), strings.TrimSpace(view))
}
