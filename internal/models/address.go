package models

type Address struct {
	ID         ID     `json:"id,omitempty"`
	FullName   string `json:"full_name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	IsDefault  bool   `json:"is_default,omitempty"`
}

// IsComplete vérifie les champs indispensables à une livraison.
func (a *Address) IsComplete() bool {
	return a != nil && a.Street != "" && a.City != "" && a.PostalCode != "" && a.Country != ""
}
