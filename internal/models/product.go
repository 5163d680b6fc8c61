package models

import "github.com/shopspring/decimal"

// Product est la forme imbriquée d'un produit dans une ligne de panier.
type Product struct {
	ID        ID               `json:"id"`
	Name      string           `json:"name"`
	Image     string           `json:"image,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	SalePrice *decimal.Decimal `json:"sale_price,omitempty"`
}
