package client

import "github.com/tidwall/gjson"

// The backend's response shapes drifted across iterations, so the fields
// consumed here are extracted individually instead of strict-decoded:
// whatever is absent defaults to empty rather than failing the call.

// decodeSuggestionResponse pulls the consumed fields out of a
// get-card-suggestions payload.
func decodeSuggestionResponse(body []byte) SuggestionResponse {
	r := gjson.ParseBytes(body)
	out := SuggestionResponse{
		Store:          r.Get("store").String(),
		Category:       r.Get("category").String(),
		CurrentQuarter: r.Get("currentQuarter").String(),
	}
	for _, s := range r.Get("suggestions").Array() {
		out.Suggestions = append(out.Suggestions, Suggestion{
			CardName:       s.Get("card_name").String(),
			ExpectedReward: s.Get("expected_reward").String(),
			Reasoning:      s.Get("reasoning").String(),
		})
	}
	return out
}

// decodeStoreCandidates accepts both detect-stores shapes: the wrapped
// {"stores": [{name, category}]} form and the bare array served by the v1
// endpoint.
func decodeStoreCandidates(body []byte) []StoreCandidate {
	r := gjson.ParseBytes(body)
	list := r.Get("stores")
	if !list.Exists() && r.IsArray() {
		list = r
	}

	var out []StoreCandidate
	for _, s := range list.Array() {
		c := StoreCandidate{
			Name:     s.Get("name").String(),
			Category: s.Get("category").String(),
		}
		if c.Name == "" && s.Type == gjson.String {
			// oldest shape: plain store-name strings
			c.Name = s.String()
		}
		if c.Name != "" {
			out = append(out, c)
		}
	}
	return out
}

// errorMessage extracts a human-readable message from an error body. The
// backend usually serves {"error": "..."} but plain text bodies occur too.
func errorMessage(body []byte) string {
	if msg := gjson.GetBytes(body, "error").String(); msg != "" {
		return msg
	}
	if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
		return msg
	}
	return string(body)
}
