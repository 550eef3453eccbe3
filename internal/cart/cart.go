// Package cart holds the per-session shopping cart. A cart keeps at most one
// line per product; adding an existing product merges quantities and a line
// whose quantity would fall below one is removed rather than zeroed.
package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuantity is returned when adding fewer than one unit.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrInvalidPrice is returned for a negative unit price.
	ErrInvalidPrice = errors.New("unit price must be >= 0")
	// ErrInvalidProduct is returned for a non-positive product id.
	ErrInvalidProduct = errors.New("product id must be positive")
	// ErrNotInCart is returned when a product has no line in the cart.
	ErrNotInCart = errors.New("product not in cart")
)

// Line is one product in the cart. UnitPrice is in so'm.
type Line struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image,omitempty"`
}

// Total is UnitPrice times Quantity.
func (l Line) Total() int64 { return l.UnitPrice * int64(l.Quantity) }

// Cart is an ordered collection of lines. The zero value is an empty cart.
// A Cart is not safe for concurrent use; it is owned by a single session.
type Cart struct {
	Lines []Line `json:"lines"`
}

// AddResult describes what Add did, for the confirmation shown to the user.
type AddResult struct {
	Line   Line // line after the change
	Merged bool // true when an existing line was incremented
}

// Add puts qty units of item into the cart, merging with an existing line for
// the same product. item.Quantity is ignored.
func (c *Cart) Add(item Line, qty int) (AddResult, error) {
	if item.ProductID <= 0 {
		return AddResult{}, ErrInvalidProduct
	}
	if qty < 1 {
		return AddResult{}, ErrInvalidQuantity
	}
	if item.UnitPrice < 0 {
		return AddResult{}, ErrInvalidPrice
	}
	if i := c.index(item.ProductID); i >= 0 {
		c.Lines[i].Quantity += qty
		return AddResult{Line: c.Lines[i], Merged: true}, nil
	}
	item.Quantity = qty
	c.Lines = append(c.Lines, item)
	return AddResult{Line: item}, nil
}

// UpdateQuantity sets the quantity of a line. n < 1 removes the line.
func (c *Cart) UpdateQuantity(productID int64, n int) error {
	i := c.index(productID)
	if i < 0 {
		return fmt.Errorf("update %d: %w", productID, ErrNotInCart)
	}
	if n < 1 {
		c.removeAt(i)
		return nil
	}
	c.Lines[i].Quantity = n
	return nil
}

// Increment changes a line's quantity by delta, removing it when the result
// drops below one.
func (c *Cart) Increment(productID int64, delta int) error {
	i := c.index(productID)
	if i < 0 {
		return fmt.Errorf("increment %d: %w", productID, ErrNotInCart)
	}
	return c.UpdateQuantity(productID, c.Lines[i].Quantity+delta)
}

// Remove deletes the line for productID. Removing a missing product is a no-op.
func (c *Cart) Remove(productID int64) {
	if i := c.index(productID); i >= 0 {
		c.removeAt(i)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() { c.Lines = nil }

// Get returns the line for productID.
func (c *Cart) Get(productID int64) (Line, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Lines[i], true
	}
	return Line{}, false
}

// Total sums all line totals.
func (c *Cart) Total() int64 {
	var sum int64
	for _, l := range c.Lines {
		sum += l.Total()
	}
	return sum
}

// Count sums quantities across lines.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.Lines) == 0 }

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	out := &Cart{}
	if c.Lines != nil {
		out.Lines = append(make([]Line, 0, len(c.Lines)), c.Lines...)
	}
	return out
}

func (c *Cart) index(productID int64) int {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	if len(c.Lines) == 0 {
		c.Lines = nil
	}
}
