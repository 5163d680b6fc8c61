package models

import "github.com/shopspring/decimal"

type PaymentRequest struct {
	OrderID  ID                `json:"order_id"`
	Method   string            `json:"method"`
	Amount   decimal.Decimal   `json:"amount"`
	Currency string            `json:"currency"`
	Details  map[string]string `json:"details,omitempty"`
}

type PaymentResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message,omitempty"`
}
