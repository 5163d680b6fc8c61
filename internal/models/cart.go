package models

import "github.com/shopspring/decimal"

// Cart est le panier de l'identité connectée, totaux compris.
// Les lignes gardent l'ordre renvoyé par le serveur (ordre d'affichage).
type Cart struct {
	Items    []CartItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Coupon   *Coupon         `json:"coupon,omitempty"`
}

// CartItem est une ligne normalisée : le prix est toujours renseigné à l'ingestion,
// qu'il vienne de la ligne elle-même ou du produit imbriqué.
type CartItem struct {
	ID        ID                `json:"id"`
	ProductID ID                `json:"product_id"`
	Name      string            `json:"name"`
	Image     string            `json:"image,omitempty"`
	Price     decimal.Decimal   `json:"price"`
	SalePrice *decimal.Decimal  `json:"sale_price,omitempty"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options,omitempty"`
}

// EmptyCart renvoie un panier présent mais vide (connecté, rien dedans),
// à distinguer de nil (pas de panier car pas d'identité).
func EmptyCart() *Cart {
	return &Cart{Items: []CartItem{}}
}

// UnitPrice renvoie le prix unitaire effectif : prix soldé s'il est inférieur au prix.
func (i CartItem) UnitPrice() decimal.Decimal {
	if i.SalePrice != nil && i.SalePrice.LessThan(i.Price) {
		return *i.SalePrice
	}
	return i.Price
}

// LineTotal = prix unitaire effectif × quantité.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Count renvoie le nombre d'articles (somme des quantités).
func (c *Cart) Count() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Clone copie le panier pour qu'un instantané ne partage pas ses slices avec l'état interne.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	if c.Coupon != nil {
		coupon := *c.Coupon
		out.Coupon = &coupon
	}
	return &out
}
