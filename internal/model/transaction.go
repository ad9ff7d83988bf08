// Package model defines the wire-shaped banking types shared across the application.
package model

import (
	"encoding/json"
	"time"
)

// Transaction represents a single transaction as returned by the bank API.
//
// Created and Amount are kept in their wire form (an RFC3339 string and a
// raw JSON number) and parsed on demand, so a record with a garbled
// timestamp or amount survives decoding and can be counted as skipped by
// the analysis layer instead of failing the whole fetch.
type Transaction struct {
	ID            string      `json:"id"`
	Created       string      `json:"created"`
	Amount        json.Number `json:"amount"`
	Currency      string      `json:"currency"`
	Description   string      `json:"description"`
	Notes         string      `json:"notes,omitempty"`
	Category      Category    `json:"category"`
	DeclineReason string      `json:"decline_reason,omitempty"`
	Merchant      *Merchant   `json:"merchant,omitempty"`
	AccountID     string      `json:"account_id,omitempty"`
}

// Merchant holds the expanded merchant details attached to a transaction.
type Merchant struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Category string           `json:"category,omitempty"`
	Address  *MerchantAddress `json:"address,omitempty"`
}

// MerchantAddress is the merchant's physical location, when known.
type MerchantAddress struct {
	ShortFormatted string `json:"short_formatted,omitempty"`
	City           string `json:"city,omitempty"`
	Country        string `json:"country,omitempty"`
}

// Timestamp parses the transaction's creation time. The API returns
// RFC3339 with or without fractional seconds; both parse here.
func (t Transaction) Timestamp() (time.Time, error) {
	return time.Parse(time.RFC3339, t.Created)
}

// MinorUnits returns the signed amount in minor currency units.
func (t Transaction) MinorUnits() (int64, error) {
	return t.Amount.Int64()
}

// MerchantName returns the best available display name for the
// counterparty: the expanded merchant name, then the free-text
// description, then "Unknown".
func (t Transaction) MerchantName() string {
	if t.Merchant != nil && t.Merchant.Name != "" {
		return t.Merchant.Name
	}
	if t.Description != "" {
		return t.Description
	}
	return "Unknown"
}

// CounterpartyID returns the stable merchant identifier, if any.
func (t Transaction) CounterpartyID() string {
	if t.Merchant != nil {
		return t.Merchant.ID
	}
	return ""
}
