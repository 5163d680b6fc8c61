package cart

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cedra_storefront/internal/models"
	"cedra_storefront/internal/pricing"

	"github.com/shopspring/decimal"
)

type cartPayload struct {
	Items    *[]itemPayload   `json:"items"`
	Subtotal *decimal.Decimal `json:"subtotal"`
	Tax      *decimal.Decimal `json:"tax"`
	Shipping *decimal.Decimal `json:"shipping"`
	Discount *decimal.Decimal `json:"discount"`
	Total    *decimal.Decimal `json:"total"`
	Coupon   json.RawMessage  `json:"coupon"`
	Cart     json.RawMessage  `json:"cart"`
}

type itemPayload struct {
	ID          models.ID        `json:"id"`
	Quantity    int              `json:"quantity"`
	ProductID   models.ID        `json:"product_id"`
	Product     json.RawMessage  `json:"product"`
	Name        string           `json:"name"`
	ProductName string           `json:"product_name"`
	Image       string           `json:"image"`
	Price       *decimal.Decimal `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	Options     map[string]any   `json:"options"`
}

// decoded est le résultat de l'ingestion d'une réponse panier.
type decoded struct {
	cart     *models.Cart
	hasItems bool
	hasTotal bool
}

// decodeCart normalise une réponse serveur en models.Cart.
// fallback est le coupon à conserver quand la réponse ne dit rien du coupon ;
// un "coupon": null explicite le détache. Les montants absents valent zéro,
// sauf le sous-total (somme des lignes) et le total (recalculé).
func decodeCart(raw []byte, fallback *models.Coupon) (decoded, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return decoded{}, ErrUnexpectedResponse
	}

	var p cartPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return decoded{}, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	// certaines mutations renvoient {"cart": {...}}
	if p.Items == nil && len(p.Cart) > 0 && p.Cart[0] == '{' {
		return decodeCart(p.Cart, fallback)
	}

	out := decoded{cart: models.EmptyCart(), hasItems: p.Items != nil, hasTotal: p.Total != nil}
	c := out.cart

	if p.Items != nil {
		for _, item := range *p.Items {
			if normalized, ok := normalizeItem(item); ok {
				c.Items = append(c.Items, normalized)
			}
		}
	}

	c.Coupon = fallback
	if len(p.Coupon) > 0 {
		coupon, err := decodeCoupon(p.Coupon)
		if err != nil {
			return decoded{}, err
		}
		c.Coupon = coupon
	}

	c.Subtotal = valueOr(p.Subtotal, pricing.LineSubtotal(c.Items))
	c.Tax = valueOr(p.Tax, decimal.Zero)
	c.Shipping = valueOr(p.Shipping, decimal.Zero)
	c.Discount = valueOr(p.Discount, pricing.Discount(c.Subtotal, c.Coupon))
	c.Total = valueOr(p.Total, pricing.CartTotal(c.Subtotal, c.Shipping, c.Tax, c.Discount))
	return out, nil
}

// normalizeItem remonte le prix et le nom, qu'ils soient sur la ligne ou sous "product".
func normalizeItem(p itemPayload) (models.CartItem, bool) {
	if p.Quantity < 1 {
		return models.CartItem{}, false
	}

	item := models.CartItem{
		ID:        p.ID,
		ProductID: p.ProductID,
		Name:      firstNonEmpty(p.Name, p.ProductName),
		Image:     p.Image,
		Quantity:  p.Quantity,
		SalePrice: p.SalePrice,
	}

	var product models.Product
	if len(p.Product) > 0 {
		if p.Product[0] == '{' {
			_ = json.Unmarshal(p.Product, &product)
			if item.ProductID == "" {
				item.ProductID = product.ID
			}
		} else if item.ProductID == "" {
			_ = json.Unmarshal(p.Product, &item.ProductID)
		}
	}

	item.Name = firstNonEmpty(item.Name, product.Name)
	item.Image = firstNonEmpty(item.Image, product.Image)
	switch {
	case p.Price != nil:
		item.Price = *p.Price
	case product.Price != nil:
		item.Price = *product.Price
	}
	if item.SalePrice == nil {
		item.SalePrice = product.SalePrice
	}

	if len(p.Options) > 0 {
		item.Options = make(map[string]string, len(p.Options))
		for k, v := range p.Options {
			item.Options[k] = fmt.Sprint(v)
		}
	}
	return item, true
}

func decodeCoupon(raw json.RawMessage) (*models.Coupon, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case bytes.Equal(raw, []byte("null")):
		return nil, nil
	case len(raw) > 0 && raw[0] == '"':
		var code string
		if err := json.Unmarshal(raw, &code); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		if code == "" {
			return nil, nil
		}
		return &models.Coupon{Code: code, IsActive: true}, nil
	default:
		var coupon models.Coupon
		if err := json.Unmarshal(raw, &coupon); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		return &coupon, nil
	}
}

func valueOr(v *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if v != nil {
		return *v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
