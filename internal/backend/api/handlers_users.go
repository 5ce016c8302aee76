package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shomuran/cardadvisor/internal/backend"
	"github.com/shomuran/cardadvisor/internal/backend/store"
)

// profileBody is the wire shape of a user profile. Cards stay raw so the
// stub never rewrites the string/object mix the client submitted.
type profileBody struct {
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	UserCards []json.RawMessage `json:"userCards"`
}

func profileOf(u store.User) profileBody {
	cards := u.UserCards
	if cards == nil {
		cards = []json.RawMessage{}
	}
	return profileBody{Name: u.Name, Email: u.Email, UserCards: cards}
}

// GetProfile handles GET /api/user/{email}.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	user, ok := h.store.GetUser(email)
	if !ok {
		backend.Error(w, http.StatusNotFound, "user not found")
		return
	}
	backend.JSON(w, http.StatusOK, profileOf(user))
}

// PutProfile handles PUT /api/user/{email}: a full-profile replace. The
// account fields the client never sees (ID, password hash, created-at)
// are carried over from the stored record.
func (h *Handler) PutProfile(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(chi.URLParam(r, "email")))

	var body profileBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		backend.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, ok := h.store.GetUser(email)
	if !ok {
		user = store.User{
			ID:        uuid.NewString(),
			Email:     email,
			CreatedAt: h.store.Clock.Now().Unix(),
		}
	}
	user.Name = body.Name
	user.UserCards = body.UserCards
	user.UpdatedAt = h.store.Clock.Now().Unix()

	if err := h.store.SetUser(user); err != nil {
		backend.Error(w, http.StatusInternalServerError, "storing user")
		return
	}
	backend.JSON(w, http.StatusOK, profileOf(user))
}
