package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/shomuran/cardadvisor/internal/backend"
	"github.com/shomuran/cardadvisor/internal/backend/store"
)

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) (store.User, bool) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		backend.Error(w, http.StatusBadRequest, "invalid JSON body")
		return store.User{}, false
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		backend.Error(w, http.StatusBadRequest, "email and password are required")
		return store.User{}, false
	}
	if _, exists := h.store.GetUser(req.Email); exists {
		backend.Error(w, http.StatusConflict, "account already exists")
		return store.User{}, false
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		backend.Error(w, http.StatusInternalServerError, "hashing password")
		return store.User{}, false
	}

	now := h.store.Clock.Now().Unix()
	user := store.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.store.SetUser(user); err != nil {
		backend.Error(w, http.StatusInternalServerError, "storing user")
		return store.User{}, false
	}
	return user, true
}

// Register handles POST /api/auth/register. The client consumes the
// status only.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.createUser(w, r); !ok {
		return
	}
	backend.JSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

// Signup handles POST /api/auth/signup, the iteration that answers with
// the registered email.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	user, ok := h.createUser(w, r)
	if !ok {
		return
	}
	backend.JSON(w, http.StatusOK, map[string]string{"email": user.Email})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		backend.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, ok := h.store.GetUser(req.Email)
	if !ok || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		backend.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.issueToken(w, user.Email)
}

// LoginByEmail handles the POST /api/user/login variant that
// authenticates by email alone.
func (h *Handler) LoginByEmail(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		backend.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, ok := h.store.GetUser(req.Email)
	if !ok {
		backend.Error(w, http.StatusNotFound, "user not found")
		return
	}

	h.issueToken(w, user.Email)
}

func (h *Handler) issueToken(w http.ResponseWriter, email string) {
	token, err := h.tokens.Issue(email, h.store.Clock.Now())
	if err != nil {
		backend.Error(w, http.StatusInternalServerError, "issuing token")
		return
	}
	backend.JSON(w, http.StatusOK, map[string]string{"token": token, "email": email})
}
