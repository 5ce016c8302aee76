// Package client is the HTTP client for the card advisor backend. It wraps
// the /api/auth, /api/user, /api/get-card-suggestions, /api/google and
// /api/cards endpoints with typed methods and tolerant response decoding.
package client

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CardRef identifies a card the user owns. The backend has served two
// shapes for this over time: a bare card-name string and a structured
// {issuer, cardProduct} pair. CardRef is the tagged union of both; the
// wire shape round-trips so a profile saved back carries the same form it
// was loaded with.
type CardRef struct {
	Name        string
	Issuer      string
	CardProduct string
}

// structured reports whether the ref carries the {issuer, cardProduct}
// wire shape.
func (c CardRef) structured() bool {
	return c.Issuer != "" || c.CardProduct != ""
}

// Display returns the human-readable card name for either variant.
func (c CardRef) Display() string {
	if c.Name != "" {
		return c.Name
	}
	return strings.TrimSpace(c.Issuer + " " + c.CardProduct)
}

// cardRefWire is the structured JSON form of a CardRef.
type cardRefWire struct {
	Issuer      string `json:"issuer"`
	CardProduct string `json:"cardProduct"`
	Name        string `json:"name,omitempty"`
}

// UnmarshalJSON accepts either a JSON string or a structured object.
func (c *CardRef) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*c = CardRef{Name: name}
		return nil
	}

	var wire cardRefWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("card ref must be a string or an object: %w", err)
	}
	*c = CardRef{Name: wire.Name, Issuer: wire.Issuer, CardProduct: wire.CardProduct}
	return nil
}

// MarshalJSON writes the same shape the ref was parsed from: a bare string
// for name-only refs, the structured object otherwise.
func (c CardRef) MarshalJSON() ([]byte, error) {
	if !c.structured() {
		return json.Marshal(c.Name)
	}
	return json.Marshal(cardRefWire{Issuer: c.Issuer, CardProduct: c.CardProduct, Name: c.Name})
}

// Profile is the user's stored name, email, and owned cards.
type Profile struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UserCards []CardRef `json:"userCards"`
}

// LoginResult is the payload returned by a successful login.
type LoginResult struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// StoreCandidate is a nearby merchant resolved from coordinates. It is
// ephemeral: produced per lookup and never persisted.
type StoreCandidate struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Suggestion is one backend-ranked card recommendation. The order suggestions
// arrive in is authoritative; the client never re-sorts them.
type Suggestion struct {
	CardName       string `json:"card_name"`
	ExpectedReward string `json:"expected_reward"`
	Reasoning      string `json:"reasoning"`
}

// SuggestionRequest is the body of POST /api/get-card-suggestions. Either
// Store or the coordinate pair must be set; the rest is optional.
type SuggestionRequest struct {
	Email          string    `json:"email,omitempty"`
	Store          string    `json:"store,omitempty"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	Category       string    `json:"category,omitempty"`
	CurrentQuarter string    `json:"currentQuarter,omitempty"`
	UserCards      []CardRef `json:"userCards,omitempty"`
}

// SuggestionResponse is the decoded suggestion payload. Every field may be
// absent on the wire; absent fields decode to their zero value.
type SuggestionResponse struct {
	Store          string       `json:"store"`
	Category       string       `json:"category"`
	CurrentQuarter string       `json:"currentQuarter"`
	Suggestions    []Suggestion `json:"suggestions"`
}
