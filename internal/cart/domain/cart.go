package domain

// Line is one desired purchase quantity for one product.
type Line struct {
	ProductID string `json:"id"`
	Quantity  int    `json:"qty"`
}

// Cart is an ordered sequence of lines. Order is insertion order and
// determines on-screen ordering; there is at most one line per product id.
type Cart struct {
	Lines []Line `json:"lines"`
}

// Empty reports whether the cart holds no lines.
func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Find returns the index of the line for productID, or -1.
func (c Cart) Find(productID string) int {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// TotalQuantity sums all line quantities.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// Normalize rewrites the cart so its invariants hold: empty product ids and
// non-positive quantities are dropped, duplicate ids are merged into the
// first occurrence (quantities accumulate). Line order is otherwise kept.
func Normalize(c Cart) Cart {
	if len(c.Lines) == 0 {
		return Cart{}
	}

	out := Cart{Lines: make([]Line, 0, len(c.Lines))}
	index := make(map[string]int, len(c.Lines))
	for _, l := range c.Lines {
		if l.ProductID == "" || l.Quantity < 1 {
			continue
		}
		if i, ok := index[l.ProductID]; ok {
			out.Lines[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out.Lines)
		out.Lines = append(out.Lines, l)
	}
	return out
}

// ClampQuantity coerces any invalid quantity to the floor of 1. Quantity
// controls never error; an out-of-range input means "at least one".
func ClampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}
