package storetest

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	superusersCollection   = "_superusers"
	superusersCollectionID = "pbc_3142635823"
)

// AddSuperuser registers an administrative identity and returns its id.
func (s *Server) AddSuperuser(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	su := &superuser{id: randomID(15), email: email, password: password, created: s.timestamp()}
	s.superusers[strings.ToLower(email)] = su
	return su.id
}

// Token issues a token for the superuser with the given email, as a
// successful login would.
func (s *Server) Token(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	su := s.superusers[strings.ToLower(email)]
	if su == nil {
		return ""
	}
	token, err := s.issueLocked(su)
	if err != nil {
		panic(err)
	}
	return token
}

func (s *Server) issueLocked(su *superuser) (string, error) {
	claims := jwt.MapClaims{
		"id":           su.id,
		"type":         "auth",
		"collectionId": superusersCollectionID,
		"refreshable":  true,
		"exp":          s.now().Add(s.TokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// authLocked returns the superuser behind the request token. Missing,
// malformed and expired tokens all make the request a guest request.
func (s *Server) authLocked(r *http.Request) *superuser {
	raw := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if raw == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil
	}

	id, _ := claims["id"].(string)
	for _, su := range s.superusers {
		if su.id == id {
			return su
		}
	}
	return nil
}

func (su *superuser) export() map[string]any {
	return map[string]any{
		"id":             su.id,
		"email":          su.email,
		"collectionId":   superusersCollectionID,
		"collectionName": superusersCollection,
		"created":        su.created,
		"updated":        su.created,
	}
}

func (s *Server) handleAuthWithPassword(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("collection")
	if name != superusersCollection && name != superusersCollectionID {
		writeError(w, http.StatusNotFound, "Missing or invalid auth collection context.", nil)
		return
	}

	var body struct {
		Identity string `json:"identity"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "An error occurred while loading the submitted data.", nil)
		return
	}
	if body.Identity == "" || body.Password == "" {
		data := map[string]fieldError{}
		if body.Identity == "" {
			data["identity"] = fieldError{"validation_required", "Cannot be blank."}
		}
		if body.Password == "" {
			data["password"] = fieldError{"validation_required", "Cannot be blank."}
		}
		writeError(w, http.StatusBadRequest, "Failed to authenticate.", data)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	su := s.superusers[strings.ToLower(body.Identity)]
	if su == nil || su.password != body.Password {
		writeError(w, http.StatusBadRequest, "Failed to authenticate.", nil)
		return
	}
	token, err := s.issueLocked(su)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "record": su.export()})
}

// TokenWithTTL issues a token that expires after ttl.
func (s *Server) TokenWithTTL(email string, ttl time.Duration) string {
	s.mu.Lock()
	orig := s.TokenTTL
	s.TokenTTL = ttl
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.TokenTTL = orig
		s.mu.Unlock()
	}()
	return s.Token(email)
}
