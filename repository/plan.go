package repository

// rowPlan is the id-diff between the stored rows of one level and the
// incoming rows. inserts and updates index into the incoming slice.
type rowPlan struct {
	inserts []int
	updates []int
	deletes []uint
}

// planRows matches incoming rows to stored rows by surrogate id. Incoming
// rows with id 0, an id unknown to the store, or an id already claimed by an
// earlier incoming row are inserted. Stored ids nobody claimed are deleted.
func planRows(stored []uint, incoming []uint) rowPlan {
	known := make(map[uint]bool, len(stored))
	for _, id := range stored {
		known[id] = true
	}

	var p rowPlan
	claimed := make(map[uint]bool, len(incoming))
	for i, id := range incoming {
		if id == 0 || !known[id] || claimed[id] {
			p.inserts = append(p.inserts, i)
			continue
		}
		claimed[id] = true
		p.updates = append(p.updates, i)
	}
	for _, id := range stored {
		if !claimed[id] {
			p.deletes = append(p.deletes, id)
		}
	}
	return p
}

func ids[T any](rows []T, id func(*T) uint) []uint {
	out := make([]uint, len(rows))
	for i := range rows {
		out[i] = id(&rows[i])
	}
	return out
}
