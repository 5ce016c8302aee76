package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/shomuran/cardadvisor/internal/backend"
	"github.com/shomuran/cardadvisor/internal/backend/store"
)

// GetSuggestions handles POST /api/get-card-suggestions. Either a store
// name or a coordinate pair must be present; everything else is filled
// from stored state or derived.
func (h *Handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || !gjson.ValidBytes(body) {
		backend.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req := gjson.ParseBytes(body)

	storeName := strings.TrimSpace(req.Get("store").String())
	lat := req.Get("latitude")
	lng := req.Get("longitude")

	if storeName == "" && !(lat.Exists() && lng.Exists()) {
		backend.Error(w, http.StatusBadRequest, "store name or coordinates required")
		return
	}

	category := strings.TrimSpace(req.Get("category").String())
	if storeName == "" {
		// Coordinate-only request: resolve against the merchant table.
		if nearby := h.store.NearbyMerchants(lat.Float(), lng.Float()); len(nearby) > 0 {
			storeName = nearby[0].Name
			if category == "" {
				category = nearby[0].Category
			}
		} else {
			storeName = "Unknown Store"
		}
	}
	if category == "" {
		category = h.store.Categorize(storeName)
	}

	quarter := strings.TrimSpace(req.Get("currentQuarter").String())
	if quarter == "" {
		quarter = quarterOf(h.store.Clock.Now())
	}

	cards := cardNames(req.Get("userCards"))
	if len(cards) == 0 {
		if user, ok := h.store.GetUser(req.Get("email").String()); ok {
			for _, raw := range user.UserCards {
				cards = append(cards, cardName(gjson.ParseBytes(raw)))
			}
		}
	}

	suggestions := h.store.Rank(cards, category, quarter)
	if suggestions == nil {
		suggestions = []store.RankedCard{}
	}

	backend.JSON(w, http.StatusOK, map[string]any{
		"store":          storeName,
		"category":       category,
		"currentQuarter": quarter,
		"suggestions":    suggestions,
	})
}

// quarterOf formats a time as "Q3 2026", matching what the client sends.
func quarterOf(t time.Time) string {
	return fmt.Sprintf("Q%d %d", (int(t.Month())-1)/3+1, t.Year())
}

// cardNames flattens a userCards array of mixed bare strings and
// {issuer, cardProduct} objects into display names.
func cardNames(arr gjson.Result) []string {
	if !arr.IsArray() {
		return nil
	}
	var out []string
	arr.ForEach(func(_, card gjson.Result) bool {
		out = append(out, cardName(card))
		return true
	})
	return out
}

func cardName(card gjson.Result) string {
	if card.Type == gjson.String {
		return card.String()
	}
	if name := card.Get("name").String(); name != "" {
		return name
	}
	return strings.TrimSpace(card.Get("issuer").String() + " " + card.Get("cardProduct").String())
}

// DetectStores handles GET /api/google/detect-stores: nearby merchants
// wrapped in a {"stores": [...]} envelope.
func (h *Handler) DetectStores(w http.ResponseWriter, r *http.Request) {
	stores, ok := h.nearbyStores(w, r)
	if !ok {
		return
	}
	backend.JSON(w, http.StatusOK, map[string]any{"stores": stores})
}

// DetectStoresV1 is the older shape of the same lookup: a bare array.
func (h *Handler) DetectStoresV1(w http.ResponseWriter, r *http.Request) {
	stores, ok := h.nearbyStores(w, r)
	if !ok {
		return
	}
	backend.JSON(w, http.StatusOK, stores)
}

type storeCandidate struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (h *Handler) nearbyStores(w http.ResponseWriter, r *http.Request) ([]storeCandidate, bool) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("latitude"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("longitude"), 64)
	if errLat != nil || errLng != nil {
		backend.Error(w, http.StatusBadRequest, "latitude and longitude query parameters required")
		return nil, false
	}

	merchants := h.store.NearbyMerchants(lat, lng)
	out := make([]storeCandidate, 0, len(merchants))
	for _, m := range merchants {
		out = append(out, storeCandidate{Name: m.Name, Category: m.Category})
	}
	return out, true
}

var cardIssuers = []string{
	"American Express",
	"Bank of America",
	"Capital One",
	"Chase",
	"Citi",
	"Discover",
	"Wells Fargo",
}

var cardProducts = map[string][]string{
	"American Express": {"Gold Card", "Platinum Card", "Blue Cash Everyday", "Blue Cash Preferred"},
	"Bank of America":  {"Customized Cash Rewards", "Travel Rewards"},
	"Capital One":      {"Venture", "Savor", "Quicksilver"},
	"Chase":            {"Sapphire Preferred", "Sapphire Reserve", "Freedom Flex", "Freedom Unlimited"},
	"Citi":             {"Double Cash", "Custom Cash", "Costco Anywhere Visa"},
	"Discover":         {"Discover it Cash Back", "Discover it Miles"},
	"Wells Fargo":      {"Active Cash", "Autograph"},
}

// Issuers handles GET /api/cards/issuers with an optional ?search= filter.
func (h *Handler) Issuers(w http.ResponseWriter, r *http.Request) {
	search := strings.ToLower(r.URL.Query().Get("search"))
	out := make([]string, 0, len(cardIssuers))
	for _, issuer := range cardIssuers {
		if search == "" || strings.Contains(strings.ToLower(issuer), search) {
			out = append(out, issuer)
		}
	}
	backend.JSON(w, http.StatusOK, out)
}

// Products handles GET /api/cards/products. An ?issuer= filter narrows to
// one issuer's products; ?search= filters by product name.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	issuerFilter := strings.ToLower(r.URL.Query().Get("issuer"))
	search := strings.ToLower(r.URL.Query().Get("search"))

	out := []string{}
	for _, issuer := range cardIssuers {
		if issuerFilter != "" && !strings.Contains(strings.ToLower(issuer), issuerFilter) {
			continue
		}
		for _, product := range cardProducts[issuer] {
			if search == "" || strings.Contains(strings.ToLower(product), search) {
				out = append(out, product)
			}
		}
	}
	backend.JSON(w, http.StatusOK, out)
}
