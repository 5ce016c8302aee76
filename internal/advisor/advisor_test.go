package advisor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shomuran/cardadvisor/internal/client"
)

type fakeLocator struct {
	loc Location
	err error
}

func (f fakeLocator) Locate(ctx context.Context) (Location, error) {
	return f.loc, f.err
}

func profileWithCards(names ...string) client.Profile {
	p := client.Profile{Name: "Dana", Email: "dana@example.com"}
	for _, n := range names {
		p.UserCards = append(p.UserCards, client.CardRef{Name: n})
	}
	return p
}

func TestQuarter(t *testing.T) {
	cases := []struct {
		month time.Month
		want  string
	}{
		{time.January, "Q1 2026"},
		{time.March, "Q1 2026"},
		{time.April, "Q2 2026"},
		{time.June, "Q2 2026"},
		{time.July, "Q3 2026"},
		{time.October, "Q4 2026"},
		{time.December, "Q4 2026"},
	}
	for _, tc := range cases {
		got := Quarter(time.Date(2026, tc.month, 15, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, tc.want, got)
	}
}

func TestSuggestRequiresCards(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	a := &Advisor{Client: client.New(srv.URL)}
	_, err := a.Suggest(context.Background(), client.Profile{Email: "dana@example.com"}, "Costco", "")
	assert.ErrorIs(t, err, ErrNoCards)
	assert.Zero(t, calls.Load(), "no-cards gate must make zero suggestion calls")
}

func TestSuggestRejectsBlankStore(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	a := &Advisor{Client: client.New(srv.URL)}
	_, err := a.Suggest(context.Background(), profileWithCards("Amex Gold"), "   ", "")
	assert.ErrorIs(t, err, ErrEmptyStore)
	assert.Zero(t, calls.Load())
}

func TestSuggestSplitsBestAndAlternatives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"store": "Costco", "category": "wholesale", "currentQuarter": "Q1 2026",
			"suggestions": [
				{"card_name": "Citi Costco", "expected_reward": "4%", "reasoning": "wholesale bonus"},
				{"card_name": "Amex Gold", "expected_reward": "1%", "reasoning": "base rate"},
				{"card_name": "Chase Freedom", "expected_reward": "1%", "reasoning": "base rate"}
			]
		}`))
	}))
	defer srv.Close()

	a := &Advisor{Client: client.New(srv.URL)}
	res, err := a.Suggest(context.Background(), profileWithCards("Citi Costco", "Amex Gold", "Chase Freedom"), "Costco", "")
	require.NoError(t, err)
	require.NotNil(t, res.Best)
	assert.Equal(t, "Citi Costco", res.Best.CardName)
	require.Len(t, res.Alternatives, 2)
	assert.Equal(t, "Amex Gold", res.Alternatives[0].CardName)
	assert.Equal(t, "Q1 2026", res.Quarter)
}

func TestSuggestEmptySuggestionsIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"store": "Costco", "suggestions": []}`))
	}))
	defer srv.Close()

	a := &Advisor{Client: client.New(srv.URL)}
	res, err := a.Suggest(context.Background(), profileWithCards("Amex Gold"), "Costco", "")
	require.NoError(t, err)
	assert.Nil(t, res.Best)
	assert.Empty(t, res.Alternatives)
}

func TestSuggestSendsQuarterAndCards(t *testing.T) {
	var got client.SuggestionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decodeJSONBody(t, r, &got)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a := &Advisor{
		Client: client.New(srv.URL),
		Now:    func() time.Time { return time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC) },
	}
	_, err := a.Suggest(context.Background(), profileWithCards("A", "B"), "Costco", "wholesale")
	require.NoError(t, err)
	assert.Equal(t, "Q3 2026", got.CurrentQuarter)
	assert.Equal(t, "Costco", got.Store)
	assert.Equal(t, "wholesale", got.Category)
	require.Len(t, got.UserCards, 2)
}

func TestSuggestNearbySendsCoordinates(t *testing.T) {
	var got client.SuggestionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decodeJSONBody(t, r, &got)
		w.Write([]byte(`{"store":"Costco","suggestions":[{"card_name":"Citi Costco"}]}`))
	}))
	defer srv.Close()

	a := &Advisor{
		Client:  client.New(srv.URL),
		Locator: fakeLocator{loc: Location{Latitude: 40.7, Longitude: -74.0}},
	}
	res, err := a.SuggestNearby(context.Background(), profileWithCards("Citi Costco"))
	require.NoError(t, err)
	require.NotNil(t, got.Latitude)
	assert.InDelta(t, 40.7, *got.Latitude, 0.001)
	require.NotNil(t, got.Longitude)
	assert.InDelta(t, -74.0, *got.Longitude, 0.001)
	assert.Equal(t, "Costco", res.Store)
}

func TestSuggestNearbyWithoutLocatorIsGeoError(t *testing.T) {
	a := &Advisor{Client: client.New("http://127.0.0.1:1")}
	_, err := a.SuggestNearby(context.Background(), profileWithCards("Amex Gold"))
	var geoErr *GeoError
	require.ErrorAs(t, err, &geoErr)
}

func TestSuggestNearbyLocationDenied(t *testing.T) {
	a := &Advisor{
		Client:  client.New("http://127.0.0.1:1"),
		Locator: fakeLocator{err: errors.New("permission denied")},
	}
	_, err := a.SuggestNearby(context.Background(), profileWithCards("Amex Gold"))
	var geoErr *GeoError
	require.ErrorAs(t, err, &geoErr)
	assert.Contains(t, geoErr.Error(), "permission denied")
}

func TestResolveNearbyZeroCandidatesFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stores": []}`))
	}))
	defer srv.Close()

	a := &Advisor{
		Client:  client.New(srv.URL),
		Locator: fakeLocator{loc: Location{Latitude: 1, Longitude: 2}},
		Choose: func(c []client.StoreCandidate) (client.StoreCandidate, bool) {
			t.Fatal("chooser must not run for zero candidates")
			return client.StoreCandidate{}, false
		},
	}
	got, err := a.ResolveNearby(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UnknownStore, got.Name)
	assert.Equal(t, GeneralCategory, got.Category)
}

func TestResolveNearbySingleCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stores":[{"name":"Shell","category":"gas"}]}`))
	}))
	defer srv.Close()

	a := &Advisor{
		Client:  client.New(srv.URL),
		Locator: fakeLocator{loc: Location{Latitude: 1, Longitude: 2}},
		Choose: func(c []client.StoreCandidate) (client.StoreCandidate, bool) {
			t.Fatal("chooser must not run for a single candidate")
			return client.StoreCandidate{}, false
		},
	}
	got, err := a.ResolveNearby(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Shell", got.Name)
}

func TestResolveNearbyMultipleCandidatesGoThroughChooser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stores":[
			{"name":"Shell","category":"gas"},
			{"name":"Costco","category":"wholesale"}
		]}`))
	}))
	defer srv.Close()

	a := &Advisor{
		Client:  client.New(srv.URL),
		Locator: fakeLocator{loc: Location{Latitude: 1, Longitude: 2}},
		Choose: func(c []client.StoreCandidate) (client.StoreCandidate, bool) {
			require.Len(t, c, 2)
			return c[1], true
		},
	}
	got, err := a.ResolveNearby(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Costco", got.Name)
}

func TestResolveNearbyDismissal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stores":[{"name":"A","category":"x"},{"name":"B","category":"y"}]}`))
	}))
	defer srv.Close()

	a := &Advisor{
		Client:  client.New(srv.URL),
		Locator: fakeLocator{loc: Location{}},
		Choose: func(c []client.StoreCandidate) (client.StoreCandidate, bool) {
			return client.StoreCandidate{}, false
		},
	}
	_, err := a.ResolveNearby(context.Background())
	assert.ErrorIs(t, err, ErrChoiceDismissed)
}
