// Package advisor drives the suggestion flow: resolve a merchant (typed-in
// or located), then ask the backend which owned card to use. Ranking lives
// entirely in the backend; this package only sequences the calls and
// enforces the client-side gates.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shomuran/cardadvisor/internal/client"
)

// Sentinels used when location-based resolution finds nothing: the request
// proceeds with a generic merchant rather than failing.
const (
	UnknownStore    = "Unknown Store"
	GeneralCategory = "general"
)

// LocateTimeout bounds geolocation acquisition. Suggestion and profile
// requests themselves carry no extra deadline beyond the HTTP client's.
const LocateTimeout = 15 * time.Second

// ErrEmptyStore reports a blank store name on the manual path. It blocks
// the request before anything reaches the network.
var ErrEmptyStore = errors.New("store name is empty")

// ErrNoCards means the user has no stored cards; callers send the user to
// the card editor instead of making a suggestion call.
var ErrNoCards = errors.New("no cards on profile")

// ErrChoiceDismissed means the user dismissed the store disambiguation
// prompt, cancelling the auto-detect flow.
var ErrChoiceDismissed = errors.New("store selection dismissed")

// Location is a device coordinate pair.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Locator abstracts device geolocation. A nil Locator means the device has
// no geolocation capability.
type Locator interface {
	Locate(ctx context.Context) (Location, error)
}

// GeoError is a geolocation failure. It is terminal for the auto-detect
// path only and is surfaced distinctly from backend failures; the manual
// path is unaffected.
type GeoError struct {
	Reason string
	Err    error
}

func (e *GeoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geolocation %s: %v", e.Reason, e.Err)
	}
	return "geolocation " + e.Reason
}

func (e *GeoError) Unwrap() error { return e.Err }

// Chooser presents a synchronous disambiguation choice when several nearby
// stores are returned. Returning ok=false dismisses the flow.
type Chooser func(candidates []client.StoreCandidate) (client.StoreCandidate, bool)

// Result is a normalized suggestion response: the backend's first
// suggestion is the best card, the rest are alternatives in backend order.
type Result struct {
	Store        string
	Category     string
	Quarter      string
	Best         *client.Suggestion
	Alternatives []client.Suggestion
}

// Advisor sequences the suggestion flow against one backend.
type Advisor struct {
	Client  *client.Client
	Locator Locator
	Choose  Chooser

	// Now is the clock for quarter computation; nil means time.Now.
	Now func() time.Time
}

// Quarter formats t as the backend's quarter string, e.g. "Q3 2026".
func Quarter(t time.Time) string {
	q := (int(t.Month())-1)/3 + 1
	return fmt.Sprintf("Q%d %d", q, t.Year())
}

func (a *Advisor) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Suggest runs the manual path: a user-typed store name. The empty-input
// and no-cards gates fire before any network call.
func (a *Advisor) Suggest(ctx context.Context, p client.Profile, store, category string) (Result, error) {
	if len(p.UserCards) == 0 {
		return Result{}, ErrNoCards
	}
	store = strings.TrimSpace(store)
	if store == "" {
		return Result{}, ErrEmptyStore
	}

	resp, err := a.Client.GetSuggestions(ctx, client.SuggestionRequest{
		Email:          p.Email,
		Store:          store,
		Category:       category,
		CurrentQuarter: Quarter(a.now()),
		UserCards:      p.UserCards,
	})
	if err != nil {
		return Result{}, err
	}
	return newResult(store, category, resp), nil
}

// SuggestNearby runs the one-shot auto path the web client used: locate
// the device and send the coordinates straight to the suggestion endpoint,
// letting the backend resolve the merchant.
func (a *Advisor) SuggestNearby(ctx context.Context, p client.Profile) (Result, error) {
	if len(p.UserCards) == 0 {
		return Result{}, ErrNoCards
	}

	loc, err := a.locate(ctx)
	if err != nil {
		return Result{}, err
	}

	resp, err := a.Client.GetSuggestions(ctx, client.SuggestionRequest{
		Email:          p.Email,
		Latitude:       &loc.Latitude,
		Longitude:      &loc.Longitude,
		CurrentQuarter: Quarter(a.now()),
		UserCards:      p.UserCards,
	})
	if err != nil {
		return Result{}, err
	}
	return newResult("", "", resp), nil
}

// ResolveNearby runs the two-step auto path: locate the device, ask the
// backend for nearby store candidates, and disambiguate. Zero candidates
// silently fall back to the Unknown Store sentinel; a single candidate is
// used directly; several candidates go through the Chooser, which blocks
// until the user picks or dismisses.
func (a *Advisor) ResolveNearby(ctx context.Context) (client.StoreCandidate, error) {
	loc, err := a.locate(ctx)
	if err != nil {
		return client.StoreCandidate{}, err
	}

	candidates, err := a.Client.DetectStores(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return client.StoreCandidate{}, err
	}

	switch len(candidates) {
	case 0:
		return client.StoreCandidate{Name: UnknownStore, Category: GeneralCategory}, nil
	case 1:
		return candidates[0], nil
	}

	if a.Choose == nil {
		return candidates[0], nil
	}
	chosen, ok := a.Choose(candidates)
	if !ok {
		return client.StoreCandidate{}, ErrChoiceDismissed
	}
	return chosen, nil
}

// locate acquires the device position with a bounded wait.
func (a *Advisor) locate(ctx context.Context) (Location, error) {
	if a.Locator == nil {
		return Location{}, &GeoError{Reason: "not supported on this device"}
	}

	ctx, cancel := context.WithTimeout(ctx, LocateTimeout)
	defer cancel()

	loc, err := a.Locator.Locate(ctx)
	if err != nil {
		return Location{}, &GeoError{Reason: "unavailable", Err: err}
	}
	return loc, nil
}

func newResult(store, category string, resp client.SuggestionResponse) Result {
	res := Result{
		Store:    resp.Store,
		Category: resp.Category,
		Quarter:  resp.CurrentQuarter,
	}
	if res.Store == "" {
		res.Store = store
	}
	if res.Category == "" {
		res.Category = category
	}
	if len(resp.Suggestions) > 0 {
		res.Best = &resp.Suggestions[0]
		res.Alternatives = resp.Suggestions[1:]
	}
	return res
}
