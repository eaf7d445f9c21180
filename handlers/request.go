package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
)

// currentUser returns the authenticated user, writing a 401 when the
// request did not pass through the auth middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return nil, false
	}
	return user, true
}

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// decode parses the JSON body into dst, writing a 400 on failure. Bodies
// over maxBodyBytes fail the same way.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// queryInt reads a non-negative integer query parameter. Missing or
// malformed values fall back to def; services clamp the range.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
