package cart

import (
	"errors"
	"reflect"
	"testing"
)

func watch() Line { return Line{ProductID: 1, Name: "Rolex Submariner", UnitPrice: 100000} }
func bag() Line   { return Line{ProductID: 2, Name: "Chanel Classic", UnitPrice: 50000} }

func TestAdd_MergesByProductID(t *testing.T) {
	var c Cart
	r1, err := c.Add(watch(), 1)
	if err != nil || r1.Merged || r1.Line.Quantity != 1 {
		t.Fatalf("first add: %+v err=%v", r1, err)
	}
	r2, err := c.Add(watch(), 2)
	if err != nil || !r2.Merged || r2.Line.Quantity != 3 {
		t.Fatalf("second add: %+v err=%v", r2, err)
	}
	if len(c.Lines) != 1 {
		t.Fatalf("expected one line per product, got %d", len(c.Lines))
	}
	if _, err := c.Add(bag(), 1); err != nil {
		t.Fatalf("add bag: %v", err)
	}
	if len(c.Lines) != 2 || c.Lines[1].ProductID != 2 {
		t.Fatalf("new products append in order: %+v", c.Lines)
	}
	if c.Total() != 3*100000+50000 || c.Count() != 4 {
		t.Fatalf("totals: total=%d count=%d", c.Total(), c.Count())
	}
}

func TestAdd_Validation(t *testing.T) {
	var c Cart
	if _, err := c.Add(watch(), 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("want ErrInvalidQuantity, got %v", err)
	}
	neg := watch()
	neg.UnitPrice = -1
	if _, err := c.Add(neg, 1); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("want ErrInvalidPrice, got %v", err)
	}
	if _, err := c.Add(Line{ProductID: 0}, 1); !errors.Is(err, ErrInvalidProduct) {
		t.Fatalf("want ErrInvalidProduct, got %v", err)
	}
	if !c.IsEmpty() {
		t.Fatalf("failed adds must not mutate the cart")
	}
}

func TestUpdateQuantity_FloorRemovesLine(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		var c Cart
		_, _ = c.Add(watch(), 2)
		_, _ = c.Add(bag(), 1)
		if err := c.UpdateQuantity(1, n); err != nil {
			t.Fatalf("update(%d): %v", n, err)
		}
		if _, ok := c.Get(1); ok {
			t.Fatalf("update(%d) must remove the line, not zero it", n)
		}
		for _, l := range c.Lines {
			if l.Quantity < 1 {
				t.Fatalf("line with quantity < 1 left behind: %+v", l)
			}
		}
	}

	var c Cart
	_, _ = c.Add(watch(), 1)
	if err := c.UpdateQuantity(1, 5); err != nil {
		t.Fatalf("update: %v", err)
	}
	if l, _ := c.Get(1); l.Quantity != 5 {
		t.Fatalf("quantity = %d; want 5", l.Quantity)
	}
	if err := c.UpdateQuantity(99, 1); !errors.Is(err, ErrNotInCart) {
		t.Fatalf("want ErrNotInCart, got %v", err)
	}
}

func TestIncrement_AndRemove(t *testing.T) {
	var c Cart
	_, _ = c.Add(watch(), 1)
	if err := c.Increment(1, 1); err != nil {
		t.Fatalf("inc: %v", err)
	}
	if l, _ := c.Get(1); l.Quantity != 2 {
		t.Fatalf("quantity = %d", l.Quantity)
	}
	_ = c.Increment(1, -1)
	_ = c.Increment(1, -1)
	if !c.IsEmpty() {
		t.Fatalf("decrementing past one removes the line")
	}
	if err := c.Increment(1, 1); !errors.Is(err, ErrNotInCart) {
		t.Fatalf("want ErrNotInCart, got %v", err)
	}

	_, _ = c.Add(bag(), 1)
	c.Remove(42) // no-op
	c.Remove(2)
	if !c.IsEmpty() || c.Lines != nil {
		t.Fatalf("remove should leave a nil slice: %#v", c.Lines)
	}
}

func TestClone_IsDeep(t *testing.T) {
	var c Cart
	_, _ = c.Add(watch(), 1)
	cp := c.Clone()
	_, _ = c.Add(watch(), 4)
	c.Clear()
	if !reflect.DeepEqual(cp.Lines, []Line{{ProductID: 1, Name: "Rolex Submariner", UnitPrice: 100000, Quantity: 1}}) {
		t.Fatalf("clone changed with original: %+v", cp.Lines)
	}
	if (&Cart{}).Clone().Lines != nil {
		t.Fatalf("empty clone should keep nil lines")
	}
}
