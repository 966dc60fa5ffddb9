package web

import (
	"log/slog"
	"net/http"
	"time"

	accountStore "electionadmin/internal/adapters/storage/account"
	"electionadmin/internal/application/listutil"
	"electionadmin/internal/application/orchestrators"
)

type accountResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	Locked    bool      `json:"locked"`
}

// handleListAccounts handles GET /api/admin/accounts?role=&page=&per_page=
// PRE: User must be authenticated as superadmin
func handleListAccounts(w http.ResponseWriter, r *http.Request) {
	page := listutil.ParsePage(r.URL.Query())
	accounts, err := stores.AccountStore.List(r.Context(), accountStore.ListFilter{
		Role:   r.URL.Query().Get("role"),
		Limit:  page.Limit(),
		Offset: page.Offset(),
	})
	if err != nil {
		internalError(w, err)
		return
	}
	setNextLink(w, r, page, len(accounts))
	now := timeNow()
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse{ID: a.ID, Email: a.Email, Role: a.Role, CreatedAt: a.CreatedAt, Locked: a.IsLocked(now)})
	}
	writeJSON(w, http.StatusOK, out)
}

type createAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// handleCreateAccount handles POST /api/admin/accounts
// PRE: User must be authenticated as superadmin
// POST: Account created; its id is returned
func handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var body createAccountRequest
	if err := strictDecode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := orchestrators.ExecuteCreateAccount(r.Context(), orchestrators.CreateAccountInput{
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
	}, orchestrators.CreateAccountDeps{AccountStore: stores.AccountStore, Now: timeNow})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	slog.Info("auth_event", "event", "account_created_by_admin", "actor_id", currentPrincipal(r).ID, "account_id", id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}
