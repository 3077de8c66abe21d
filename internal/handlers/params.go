package handlers

import (
	"net/http"
	"strconv"
)

// getParam returns a path or query parameter value regardless of whether
// the router stores it with a leading colon or not.
func getParam(r *http.Request, name string) string {
	if r == nil {
		return ""
	}
	if val := r.URL.Query().Get(":" + name); val != "" {
		return val
	}
	if val := r.URL.Query().Get(name); val != "" {
		return val
	}
	return r.PathValue(name)
}

// intParam parses a non-negative integer parameter.
func intParam(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(getParam(r, name))
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// currentUser reads what the JWT middleware stored on the request context.
func currentUser(r *http.Request) (int, string, bool) {
	userID, ok := r.Context().Value("user_id").(int)
	if !ok || userID == 0 {
		return 0, "", false
	}
	role, _ := r.Context().Value("role").(string)
	return userID, role, true
}
