package store

import "encoding/json"

// User is a registered account. Cards are kept as raw JSON so both wire
// shapes (bare name strings and {issuer, cardProduct} objects) round-trip
// exactly as the client submitted them, order and duplicates included.
type User struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"password_hash,omitempty"`
	UserCards    []json.RawMessage `json:"userCards"`
	CreatedAt    int64             `json:"created_at"`
	UpdatedAt    int64             `json:"updated_at"`
}

// Merchant is an entry in the store-resolution table: a known merchant
// with its spending category and location.
type Merchant struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RewardRule maps a card (by case-insensitive name substring) and a
// spending category to an earn rate. An empty Category matches any
// purchase; an empty CardPattern matches any card. Quarter, when set,
// restricts the rule to one calendar quarter per year ("Q1".."Q4") —
// the rotating-bonus mechanic.
type RewardRule struct {
	CardPattern string  `json:"card_pattern"`
	Category    string  `json:"category,omitempty"`
	Quarter     string  `json:"quarter,omitempty"`
	Rate        float64 `json:"rate"`
	Reasoning   string  `json:"reasoning"`
}
