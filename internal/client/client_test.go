package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginDecodesTokenAndEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "dana@example.com", body["email"])
		json.NewEncoder(w).Encode(map[string]string{"token": "tok_1", "email": "dana@example.com"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Login(context.Background(), "dana@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok_1", res.Token)
	assert.Equal(t, "dana@example.com", res.Email)
}

func TestLoginBadCredentialsIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Login(context.Background(), "dana@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Message, "invalid credentials")
}

func TestTokenAttachedAsHeaderAndCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok_9", r.Header.Get("Authorization"))
		cookie, err := r.Cookie("token")
		require.NoError(t, err)
		assert.Equal(t, "tok_9", cookie.Value)
		json.NewEncoder(w).Encode(Profile{Email: "dana@example.com"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.Token = "tok_9"
	_, err := c.GetProfile(context.Background(), "dana@example.com")
	require.NoError(t, err)
}

func TestGetProfileNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "user not found"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetProfile(context.Background(), "nobody@example.com")
	assert.True(t, IsNotFound(err))
}

func TestPutProfileSendsFullProfile(t *testing.T) {
	var received Profile
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/user/dana@example.com", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(received)
	}))
	defer srv.Close()

	c := New(srv.URL)
	p := Profile{
		Name:  "Dana",
		Email: "dana@example.com",
		UserCards: []CardRef{
			{Name: "A"}, {Name: "B"}, {Name: "A"}, // duplicates are preserved
		},
	}
	updated, err := c.PutProfile(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Dana", received.Name, "name must not be dropped from the PUT body")
	require.Len(t, updated.UserCards, 3)
	assert.Equal(t, "A", updated.UserCards[0].Display())
	assert.Equal(t, "B", updated.UserCards[1].Display())
	assert.Equal(t, "A", updated.UserCards[2].Display())
}

func TestGetSuggestionsPreservesBackendOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"store": "Costco",
			"category": "wholesale",
			"suggestions": [
				{"card_name": "Citi Costco", "expected_reward": "4%"},
				{"card_name": "Amex Gold", "expected_reward": "1%"}
			]
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.GetSuggestions(context.Background(), SuggestionRequest{
		Email: "dana@example.com",
		Store: "Costco",
	})
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 2)
	assert.Equal(t, "Citi Costco", res.Suggestions[0].CardName)
	assert.Equal(t, "Amex Gold", res.Suggestions[1].CardName)
}

func TestGetSuggestionsEmptyResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.GetSuggestions(context.Background(), SuggestionRequest{Store: "Costco"})
	require.NoError(t, err)
	assert.Empty(t, res.Suggestions)
	assert.Empty(t, res.Store)
}

func TestSuggestionRequestOmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(SuggestionRequest{Email: "dana@example.com", Store: "Costco"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "latitude")
	assert.NotContains(t, string(data), "category")
	assert.NotContains(t, string(data), "userCards")
}

func TestDetectStoresBothShapes(t *testing.T) {
	for name, body := range map[string]string{
		"wrapped": `{"stores":[{"name":"Costco","category":"wholesale"}]}`,
		"bare":    `[{"name":"Costco","category":"wholesale"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/google/detect-stores", r.URL.Path)
				assert.NotEmpty(t, r.URL.Query().Get("latitude"))
				assert.NotEmpty(t, r.URL.Query().Get("longitude"))
				w.Write([]byte(body))
			}))
			defer srv.Close()

			c := New(srv.URL)
			stores, err := c.DetectStores(context.Background(), 40.7128, -74.0060)
			require.NoError(t, err)
			require.Len(t, stores, 1)
			assert.Equal(t, "Costco", stores[0].Name)
		})
	}
}

func TestNetworkFailureWrapsTransportError(t *testing.T) {
	c := New("http://127.0.0.1:1") // nothing listens here
	_, err := c.GetProfile(context.Background(), "dana@example.com")
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, IsNotFound(err))
	assert.NotErrorAs(t, err, &apiErr, "transport failures are not APIErrors")
}

func TestContextCancellationAbortsRequest(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(srv.URL)
	_, err := c.GetProfile(ctx, "dana@example.com")
	assert.ErrorIs(t, err, context.Canceled)
}
