// Package profile loads and edits the user's stored profile. Loading gates
// on the injected session (the Go analog of the web client's redirect to
// the login screen) and soft-fails to an empty profile so a first-time
// user can still reach the editor to create one.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shomuran/cardadvisor/internal/client"
	"github.com/shomuran/cardadvisor/internal/session"
)

// ErrAuthMissing reports an absent session. It is resolved by logging in,
// never surfaced as a backend error.
var ErrAuthMissing = errors.New("not logged in")

// ErrEmptyCard reports a blank card name submitted to AddCard.
var ErrEmptyCard = errors.New("card name is empty")

// Load reads the session and fetches the profile for its email. Without a
// session it returns ErrAuthMissing before any network call. A fetch
// failure (network error or 404 for a brand-new user) is deliberately not
// an error: the result is an empty profile seeded with the known email, so
// the caller can proceed to the editor and create the profile. The cause
// is returned as a note for optional display.
func Load(ctx context.Context, c *client.Client, sessions *session.Store) (client.Profile, string, error) {
	sess, ok := sessions.Read()
	if !ok {
		return client.Profile{}, "", ErrAuthMissing
	}

	p, err := c.GetProfile(ctx, sess.Email)
	if err != nil {
		note := fmt.Sprintf("no stored profile for %s yet", sess.Email)
		if !client.IsNotFound(err) {
			note = fmt.Sprintf("could not load profile: %v", err)
		}
		return client.Profile{Email: sess.Email}, note, nil
	}

	normalize(&p)
	return p, "", nil
}

// normalize fills derived fields at the load boundary so the rest of the
// client only deals with one CardRef representation.
func normalize(p *client.Profile) {
	for i := range p.UserCards {
		ref := &p.UserCards[i]
		if ref.Name == "" {
			ref.Name = ref.Display()
		}
	}
}

// AddCard appends a card by name. Input is trimmed and blank input is
// rejected before anything reaches the network. Duplicates are permitted —
// the backend has never deduplicated and the stored order is authoritative.
func AddCard(p *client.Profile, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCard
	}
	p.UserCards = append(p.UserCards, client.CardRef{Name: name})
	return nil
}

// AddStructuredCard appends an {issuer, cardProduct} card.
func AddStructuredCard(p *client.Profile, issuer, product string) error {
	issuer = strings.TrimSpace(issuer)
	product = strings.TrimSpace(product)
	if issuer == "" && product == "" {
		return ErrEmptyCard
	}
	ref := client.CardRef{Issuer: issuer, CardProduct: product}
	ref.Name = ref.Display()
	p.UserCards = append(p.UserCards, ref)
	return nil
}

// RemoveCard deletes the card at the given list position.
func RemoveCard(p *client.Profile, idx int) error {
	if idx < 0 || idx >= len(p.UserCards) {
		return fmt.Errorf("no card at position %d", idx+1)
	}
	p.UserCards = append(p.UserCards[:idx], p.UserCards[idx+1:]...)
	return nil
}

// Save writes the full in-memory profile back with PUT. On failure the
// caller keeps its edits; nothing is rolled back, the user retries
// manually.
func Save(ctx context.Context, c *client.Client, p client.Profile) (client.Profile, error) {
	if p.Email == "" {
		return client.Profile{}, ErrAuthMissing
	}
	updated, err := c.PutProfile(ctx, p)
	if err != nil {
		return client.Profile{}, fmt.Errorf("saving profile: %w", err)
	}
	normalize(&updated)
	return updated, nil
}
