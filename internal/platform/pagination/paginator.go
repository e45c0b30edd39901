package pagination

// Slice returns the window p of items. It is used by in-memory stores.
func Slice[T any](items []T, p Params) []T {
	start := min(max(p.Offset, 0), len(items))
	end := len(items)
	if p.Limit > 0 {
		end = min(start+p.Limit, len(items))
	}
	return items[start:end]
}
