package pagination

// DefaultLimit is the default number of items per page.
const DefaultLimit = 20

// MaxLimit is the maximum number of items per page.
const MaxLimit = 100

// Params is an offset/limit page window.
type Params struct {
	Offset int
	Limit  int
}

// DefaultLimit returns the limit, defaulting to 20 if zero or negative.
func (p Params) DefaultLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}
	return p.Limit
}

// Normalize applies the default limit, caps it at maxLimit (MaxLimit when
// maxLimit is not positive) and raises a negative offset to zero.
func (p Params) Normalize(maxLimit int) Params {
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	p.Limit = min(p.DefaultLimit(), maxLimit)
	p.Offset = max(p.Offset, 0)
	return p
}

// HasNext reports whether rows remain after this page.
func (p Params) HasNext(total int64) bool {
	return int64(p.Offset)+int64(p.Limit) < total
}

// Next returns the window following p.
func (p Params) Next() Params {
	return Params{Offset: p.Offset + p.Limit, Limit: p.Limit}
}

// Prev returns the window preceding p and false when p is the first page.
func (p Params) Prev() (Params, bool) {
	if p.Offset <= 0 {
		return Params{}, false
	}
	return Params{Offset: max(p.Offset-p.Limit, 0), Limit: p.Limit}, true
}
