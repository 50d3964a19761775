package contracts

// RawRecord is one listing row exactly as decoded from the upstream JSON.
// Fields may sit at the top level or under a "cell" wrapper.
type RawRecord map[string]interface{}

// Cell returns the flattened record: the "cell" object when present, else the record itself
func (r RawRecord) Cell() RawRecord {
	switch cell := r["cell"].(type) {
	case map[string]interface{}:
		return RawRecord(cell)
	case RawRecord:
		return cell
	}
	return r
}

// ListingPage is one decoded page of the upstream listing
type ListingPage struct {
	Rows  []RawRecord
	Total *int // nil when the page does not declare a total
}
