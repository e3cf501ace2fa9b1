// Package reconcile merges a freshly fetched canonical document with the
// locally saved copy of the same order.
//
// The order system is authoritative for what was ordered; packaging is
// decided locally. Descriptive fields therefore come from the canonical
// tree while packing units, handling units and surrogate ids come from the
// cached tree, re-attached by line-item number.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

// ErrAmbiguousLineItem marks a cached document holding two line items with
// the same number.
var ErrAmbiguousLineItem = errors.New("ambiguous line item number in cached document")

// AmbiguousLineItemError names the duplicated line number
type AmbiguousLineItemError struct {
	Order  models.OrderKey
	Number string
}

func (e *AmbiguousLineItemError) Error() string {
	return fmt.Sprintf("%v: order %s line %s", ErrAmbiguousLineItem, e.Order, e.Number)
}

func (e *AmbiguousLineItemError) Unwrap() error { return ErrAmbiguousLineItem }

// Reconcile returns canonical unchanged when cached is nil. Otherwise it
// returns a new document built from canonical with the persisted identity,
// logo and packing data of cached carried over. Neither input is modified;
// packing-unit slices are shared with cached, not copied.
func Reconcile(canonical, cached *models.Document) (*models.Document, error) {
	if cached == nil {
		return canonical, nil
	}
	if canonical == nil {
		return nil, errors.New("reconcile: canonical document is nil")
	}

	cachedByNumber, err := indexLineItems(cached)
	if err != nil {
		return nil, err
	}

	merged := &models.Document{
		ID:        cached.ID,
		CreatedAt: cached.CreatedAt,
		UpdatedAt: cached.UpdatedAt,
	}
	merged.Header = mergeHeader(canonical.Header, cached.Header)
	if merged.Header != nil {
		merged.Header.DocumentID = merged.ID
	}

	merged.LineItems = make([]models.LineItem, len(canonical.LineItems))
	for i, li := range canonical.LineItems {
		out := models.LineItem{
			DocumentID:   merged.ID,
			Header:       li.Header,
			Details:      copyDetails(li.Details),
			PackingUnits: []models.LineItemPackingUnit{},
		}
		if prev, ok := cachedByNumber[li.Header.LineItemNumber.String()]; ok {
			out.ID = prev.ID
			out.PackingUnits = prev.PackingUnits
			if out.PackingUnits == nil {
				out.PackingUnits = []models.LineItemPackingUnit{}
			}
		}
		for j := range out.Details {
			out.Details[j].LineItemID = out.ID
		}
		merged.LineItems[i] = out
	}

	merged.HandlingUnits = copyHandlingUnits(cached.HandlingUnits)
	merged.RecomputeHandlingUnits()

	return merged, nil
}

// indexLineItems keys cached line items by their normalized number.
// decimal.String drops trailing zeros, so 1.10 and 1.1 share a key.
func indexLineItems(cached *models.Document) (map[string]*models.LineItem, error) {
	index := make(map[string]*models.LineItem, len(cached.LineItems))
	for i := range cached.LineItems {
		li := &cached.LineItems[i]
		k := li.Header.LineItemNumber.String()
		if _, dup := index[k]; dup {
			key, _ := cached.Key()
			return nil, &AmbiguousLineItemError{Order: key, Number: k}
		}
		index[k] = li
	}
	return index, nil
}

func mergeHeader(canonical, cached *models.Header) *models.Header {
	if canonical == nil {
		return nil
	}
	h := *canonical
	if cached == nil {
		// cached header missing: canonical wins in full
		return &h
	}
	h.ID = cached.ID
	h.LogoImagePath = cached.LogoImagePath
	return &h
}

func copyDetails(details []models.LineItemDetail) []models.LineItemDetail {
	out := make([]models.LineItemDetail, len(details))
	copy(out, details)
	return out
}

func copyHandlingUnits(units []models.HandlingUnit) []models.HandlingUnit {
	if units == nil {
		return nil
	}
	out := make([]models.HandlingUnit, len(units))
	for i, hu := range units {
		out[i] = hu
		out[i].Members = append([]models.HandlingUnitMember(nil), hu.Members...)
	}
	return out
}
