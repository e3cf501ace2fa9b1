package models

// HandlingUnit groups packing units (a pallet, a crate) under one name.
// Totals are derived from the member units and are recomputed whenever
// membership changes.
type HandlingUnit struct {
	ID            uint   `gorm:"column:handling_unit_id;primaryKey" json:"id"`
	DocumentID    uint   `gorm:"column:document_id;not null;index" json:"document_id"`
	Name          string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	TotalQuantity int    `gorm:"column:total_quantity;not null;default:0" json:"total_quantity"`
	TotalWeight   int    `gorm:"column:total_weight;not null;default:0" json:"total_weight"`

	// Relationships
	Members []HandlingUnitMember `gorm:"foreignKey:HandlingUnitID;references:ID" json:"members"`
}

// HandlingUnitMember references a packing unit by id
type HandlingUnitMember struct {
	ID             uint `gorm:"column:member_id;primaryKey" json:"id"`
	HandlingUnitID uint `gorm:"column:handling_unit_id;not null;index" json:"handling_unit_id"`
	PackingUnitID  uint `gorm:"column:packing_unit_id;not null" json:"packing_unit_id"`
}

// Add puts a saved packing unit into the handling unit and recomputes totals
func (h *HandlingUnit) Add(doc *Document, packingUnitID uint) error {
	if _, ok := doc.PackingUnitByID(packingUnitID); !ok {
		return ErrUnsavedPackingUnit
	}
	if !h.Contains(packingUnitID) {
		h.Members = append(h.Members, HandlingUnitMember{HandlingUnitID: h.ID, PackingUnitID: packingUnitID})
	}
	h.Recompute(doc)
	return nil
}

// Remove drops a packing unit from the handling unit and recomputes totals
func (h *HandlingUnit) Remove(doc *Document, packingUnitID uint) {
	kept := h.Members[:0]
	for _, m := range h.Members {
		if m.PackingUnitID != packingUnitID {
			kept = append(kept, m)
		}
	}
	h.Members = kept
	h.Recompute(doc)
}

// Contains reports whether the packing unit is a member
func (h *HandlingUnit) Contains(packingUnitID uint) bool {
	for _, m := range h.Members {
		if m.PackingUnitID == packingUnitID {
			return true
		}
	}
	return false
}

// Recompute re-derives the totals from the document's current packing units.
// Members whose unit no longer exists are dropped.
func (h *HandlingUnit) Recompute(doc *Document) {
	h.TotalQuantity = 0
	h.TotalWeight = 0
	kept := h.Members[:0]
	for _, m := range h.Members {
		u, ok := doc.PackingUnitByID(m.PackingUnitID)
		if !ok {
			continue
		}
		kept = append(kept, m)
		h.TotalQuantity += u.Quantity
		h.TotalWeight += u.Weight
	}
	h.Members = kept
}

// RecomputeHandlingUnits refreshes the totals of every handling unit
func (d *Document) RecomputeHandlingUnits() {
	for i := range d.HandlingUnits {
		d.HandlingUnits[i].Recompute(d)
	}
}
