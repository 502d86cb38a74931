package models

// PriceList identifies one of the four parallel price lists on a product.
// List 4 is reserved for the restricted distributor view.
type PriceList int

const (
	List1 PriceList = iota + 1
	List2
	List3
	List4
)

// Valid reports whether l is one of the four known lists.
func (l PriceList) Valid() bool {
	return l >= List1 && l <= List4
}

// Special reports whether l is the restricted list.
func (l PriceList) Special() bool {
	return l == List4
}

// Product is the canonical catalog entry. The id is the trimmed product code
// and is the merge key between the article and stock spreadsheet feeds.
type Product struct {
	ID           string  `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Family       string  `db:"family" json:"family"`
	Subfamily    string  `db:"subfamily" json:"subfamily"`
	Price1       float64 `db:"price_1" json:"price_1"`
	Price2       float64 `db:"price_2" json:"price_2"`
	Price3       float64 `db:"price_3" json:"price_3"`
	Price4       float64 `db:"price_4" json:"price_4"`
	Stock        int     `db:"stock" json:"stock"`
	Supplier     string  `db:"supplier" json:"supplier,omitempty"`
	IsDollar     bool    `db:"is_dollar" json:"is_dollar,omitempty"`
	ExchangeRate float64 `db:"exchange_rate" json:"exchange_rate,omitempty"`
}

// PriceFor returns the price under the given list. Invalid lists fall back
// to list 1, mirroring the public catalog default.
func (p Product) PriceFor(l PriceList) float64 {
	if !l.Valid() {
		l = List1
	}
	prices := [...]float64{p.Price1, p.Price2, p.Price3, p.Price4}
	return prices[l-1]
}

// StockRecord is a transient row parsed from the stock spreadsheet. It only
// exists between parsing and consolidation.
type StockRecord struct {
	ID    string `json:"id"`
	Stock int    `json:"stock"`
}

// CartLine is a product snapshot inside a quote draft plus the quantity and
// the price captured at selection time. SelectedPrice is not recomputed unless
// the line is explicitly re-priced to another list.
type CartLine struct {
	Product
	Quantity      int       `json:"quantity"`
	SelectedPrice float64   `json:"selected_price"`
	SelectedList  PriceList `json:"selected_list_id"`
}

// Subtotal is the line's contribution to the quote total.
func (l CartLine) Subtotal() float64 {
	return l.SelectedPrice * float64(l.Quantity)
}
