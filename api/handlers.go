package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/billbatista/acasinha-splits/group"
	"github.com/billbatista/acasinha-splits/ledger"
	"github.com/billbatista/acasinha-splits/money"
	"github.com/go-chi/chi/v5"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.svc.CreateUser(r.Context(), body.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.ListGroups(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string   `json:"name"`
		MemberIDs []string `json:"memberIds"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	g, err := h.svc.CreateGroup(r.Context(), body.Name, body.MemberIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *handler) getGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.GetGroup(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *handler) addMember(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"userId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	h.respondAddMembers(w, r, []string{body.UserID})
}

func (h *handler) addMembers(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserIDs []string `json:"userIds"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	h.respondAddMembers(w, r, body.UserIDs)
}

func (h *handler) respondAddMembers(w http.ResponseWriter, r *http.Request, userIDs []string) {
	g, err := h.svc.AddMembers(r.Context(), chi.URLParam(r, "groupID"), userIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *handler) groupActivity(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxActivityLimit)
	}

	if _, err := h.svc.GetGroup(r.Context(), groupID); err != nil {
		writeError(w, r, err)
		return
	}

	events, err := h.activity.ListByGroup(r.Context(), groupID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var in group.ExpenseInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	policy, err := ledger.ParsePolicy(string(in.SplitType))
	if err != nil {
		writeError(w, r, err)
		return
	}
	in.SplitType = policy

	expense, err := h.svc.CreateExpense(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

func (h *handler) createSettlement(w http.ResponseWriter, r *http.Request) {
	var in group.SettlementInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	settlement, err := h.svc.CreateSettlement(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, settlement)
}

func (h *handler) balances(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Balances(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ledgerEntry flattens both event variants into one JSON shape.
type ledgerEntry struct {
	ID           string            `json:"id"`
	Type         ledger.Kind       `json:"type"`
	GroupID      string            `json:"groupId"`
	ExpenseID    string            `json:"expenseId,omitempty"`
	SettlementID string            `json:"settlementId,omitempty"`
	FromUserID   string            `json:"fromUserId"`
	ToUserID     string            `json:"toUserId"`
	Amount       money.Money       `json:"amount"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

func toLedgerEntry(e ledger.Event) ledgerEntry {
	hdr := e.EventHeader()
	entry := ledgerEntry{
		ID:        hdr.ID,
		Type:      e.Kind(),
		GroupID:   hdr.GroupID,
		Metadata:  hdr.Metadata,
		CreatedAt: hdr.CreatedAt,
	}
	switch ev := e.(type) {
	case ledger.ExpenseSplit:
		entry.ExpenseID, entry.FromUserID, entry.ToUserID, entry.Amount = ev.ExpenseID, ev.From, ev.To, ev.Amount
	case ledger.Settlement:
		entry.SettlementID, entry.FromUserID, entry.ToUserID, entry.Amount = ev.SettlementID, ev.From, ev.To, ev.Amount
	}
	return entry
}

func (h *handler) ledgerEntries(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.Ledger(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries := make([]ledgerEntry, len(events))
	for i, e := range events {
		entries[i] = toLedgerEntry(e)
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) resetAll(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handler) resetGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetGroup(r.Context(), chi.URLParam(r, "groupID")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
