package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/csrf"

	"electionadmin/internal/adapters/http/middleware"
	"electionadmin/internal/application/listutil"
	"electionadmin/internal/application/orchestrators"
	accountDomain "electionadmin/internal/domain/account"
	electionDomain "electionadmin/internal/domain/election"
)

// timeNow is a variable for testability.
var timeNow = func() time.Time { return time.Now().UTC() }

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
// An empty body decodes to the zero value.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps engine and account errors to status codes. Anything
// unrecognised is an internal error.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := 0
	switch {
	case errors.Is(err, electionDomain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, electionDomain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, electionDomain.ErrConflict), errors.Is(err, orchestrators.ErrEmailAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, electionDomain.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, electionDomain.ErrValidation),
		errors.Is(err, accountDomain.ErrInvalidEmail),
		errors.Is(err, accountDomain.ErrEmptyEmail),
		errors.Is(err, accountDomain.ErrInvalidRole),
		errors.Is(err, accountDomain.ErrEmptyPassword),
		errors.Is(err, accountDomain.ErrPasswordTooShort):
		status = http.StatusBadRequest
	}
	if status == 0 {
		internalError(w, err)
		return
	}
	if status == http.StatusForbidden {
		sess, _ := middleware.GetSessionFromContext(r.Context())
		slog.Warn("auth_denied", "path", r.URL.Path, "account_id", sess.AccountID, "role", sess.Role)
	}
	writeError(w, status, err.Error())
}

// currentPrincipal returns the principal of the session RequireAuth admitted.
func currentPrincipal(r *http.Request) accountDomain.Principal {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return sess.Principal()
}

// queryInt parses a non-negative integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def, max int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

// setNextLink advertises the following page when this one came back full.
func setNextLink(w http.ResponseWriter, r *http.Request, page listutil.Page, returned int) {
	if next, ok := page.Next(returned); ok {
		w.Header().Set("Link", "<"+r.URL.Path+"?"+next.Query(r.URL.Query())+`>; rel="next"`)
	}
}

// handleHealth handles GET /healthz
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCSRFToken handles GET /api/csrf for clients that post forms.
func handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"token": csrf.Token(r)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type principalResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// handleLogin handles POST /api/login with a JSON or form body.
// POST: On success a session cookie is set and the principal returned
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var input loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form submission")
			return
		}
		input.Email = r.FormValue("email")
		input.Password = r.FormValue("password")
	} else if err := strictDecode(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    input.Email,
		Password: input.Password,
	}, orchestrators.LoginDeps{
		AccountStore: stores.AccountStore,
		AuditStore:   stores.AuditStore,
		Now:          timeNow,
	})
	switch {
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case errors.Is(err, orchestrators.ErrAccountLocked):
		writeError(w, http.StatusLocked, err.Error())
		return
	case err != nil:
		internalError(w, err)
		return
	}

	token, err := sessions.Create(p)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	writeJSON(w, http.StatusOK, principalResponse{ID: p.ID, Email: p.Email, Role: p.Role})
}

// handleLogout handles POST /api/logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe handles GET /api/me
func handleMe(w http.ResponseWriter, r *http.Request) {
	p := currentPrincipal(r)
	writeJSON(w, http.StatusOK, principalResponse{ID: p.ID, Email: p.Email, Role: p.Role})
}
