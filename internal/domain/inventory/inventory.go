package inventory

import (
	"fmt"
	"strings"
)

// Selector identifies a combination variant by its (length, curl) pair.
type Selector struct {
	Length string
	Curl   string
}

func (s Selector) Complete() bool {
	return strings.TrimSpace(s.Length) != "" && strings.TrimSpace(s.Curl) != ""
}

func (s Selector) String() string {
	return s.Length + " " + s.Curl
}

type Variant struct {
	Selector
	Stock int
	Sales int
}

// Stock is either SimpleStock or CombinationStock.
type Stock interface {
	isStock()
}

type SimpleStock struct {
	Quantity int
}

// CombinationStock keeps Total equal to the sum of variant stock.
type CombinationStock struct {
	Variants []Variant
	Total    int
}

func (SimpleStock) isStock()      {}
func (CombinationStock) isStock() {}

func (c CombinationStock) Find(sel Selector) (Variant, bool) {
	for _, v := range c.Variants {
		if v.Length == sel.Length && v.Curl == sel.Curl {
			return v, true
		}
	}
	return Variant{}, false
}

type Product struct {
	ID    string
	Title string
	Stock Stock
	Sales int
}

// NewSimpleProduct returns a product with a single stock counter.
func NewSimpleProduct(id, title string, quantity int) (*Product, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	return &Product{ID: id, Title: title, Stock: SimpleStock{Quantity: quantity}}, nil
}

// NewCombinationProduct derives the total from the variants.
func NewCombinationProduct(id, title string, variants []Variant) (*Product, error) {
	total := 0
	seen := make(map[Selector]struct{}, len(variants))
	for _, v := range variants {
		if !v.Selector.Complete() {
			return nil, fmt.Errorf("inventory: variant of %s needs both length and curl", id)
		}
		if v.Stock < 0 {
			return nil, fmt.Errorf("%w: variant %s has %d", ErrInvalidQuantity, v.Selector, v.Stock)
		}
		if _, dup := seen[v.Selector]; dup {
			return nil, fmt.Errorf("inventory: duplicate variant %s on %s", v.Selector, id)
		}
		seen[v.Selector] = struct{}{}
		total += v.Stock
	}
	return &Product{
		ID:    id,
		Title: title,
		Stock: CombinationStock{Variants: append([]Variant(nil), variants...), Total: total},
	}, nil
}

func (p *Product) IsCombination() bool {
	_, ok := p.Stock.(CombinationStock)
	return ok
}

// Available reports the stock a line could draw from.
func (p *Product) Available(sel *Selector) (int, error) {
	switch s := p.Stock.(type) {
	case SimpleStock:
		return s.Quantity, nil
	case CombinationStock:
		if sel == nil {
			return 0, fmt.Errorf("%w: %s", ErrVariantRequired, p.ID)
		}
		v, ok := s.Find(*sel)
		if !ok {
			return 0, &VariantNotFoundError{ProductID: p.ID, Variant: *sel}
		}
		return v.Stock, nil
	default:
		return 0, fmt.Errorf("inventory: product %s has no stock model", p.ID)
	}
}

// Deduct applies a checked decrement in place. Stores that hold products in
// memory use it under their own lock; database stores express the same rule
// as a conditional update.
func (p *Product) Deduct(line Line) error {
	if line.Quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, line.Quantity)
	}
	switch s := p.Stock.(type) {
	case SimpleStock:
		if s.Quantity < line.Quantity {
			return &InsufficientStockError{ProductID: p.ID, Available: s.Quantity, Requested: line.Quantity}
		}
		s.Quantity -= line.Quantity
		p.Stock = s
	case CombinationStock:
		if line.Variant == nil {
			return fmt.Errorf("%w: %s", ErrVariantRequired, p.ID)
		}
		idx := -1
		for i, v := range s.Variants {
			if v.Length == line.Variant.Length && v.Curl == line.Variant.Curl {
				idx = i
				break
			}
		}
		if idx < 0 {
			return &VariantNotFoundError{ProductID: p.ID, Variant: *line.Variant}
		}
		if s.Variants[idx].Stock < line.Quantity {
			sel := *line.Variant
			return &InsufficientStockError{
				ProductID: p.ID, Variant: &sel,
				Available: s.Variants[idx].Stock, Requested: line.Quantity,
			}
		}
		variants := append([]Variant(nil), s.Variants...)
		variants[idx].Stock -= line.Quantity
		variants[idx].Sales += line.Quantity
		p.Stock = CombinationStock{Variants: variants, Total: s.Total - line.Quantity}
	default:
		return fmt.Errorf("inventory: product %s has no stock model", p.ID)
	}
	p.Sales += line.Quantity
	return nil
}

// Clone returns a deep copy of the product.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	if s, ok := p.Stock.(CombinationStock); ok {
		c.Stock = CombinationStock{Variants: append([]Variant(nil), s.Variants...), Total: s.Total}
	}
	return &c
}

// Line is one cart entry as seen by the stock ledger.
type Line struct {
	ProductID string
	Quantity  int
	Variant   *Selector
}
