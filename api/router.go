// Package api exposes the ledger service over HTTP with JSON bodies.
package api

import (
	"net/http"

	"github.com/billbatista/acasinha-splits/eventlogger"
	"github.com/billbatista/acasinha-splits/group"
	"github.com/billbatista/acasinha-splits/middleware"
	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

type handler struct {
	svc      *group.Service
	activity eventlogger.EventLogger
}

// NewRouter wires every route. Admin routes require a bearer token matching
// adminTokenHash.
func NewRouter(svc *group.Service, activity eventlogger.EventLogger, adminTokenHash string) http.Handler {
	h := &handler{svc: svc, activity: activity}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	router.Get("/users", h.listUsers)
	router.Post("/users", h.createUser)

	router.Route("/groups", func(r chi.Router) {
		r.Get("/", h.listGroups)
		r.Post("/", h.createGroup)
		r.Get("/{groupID}", h.getGroup)
		r.Post("/{groupID}/members", h.addMember)
		r.Post("/{groupID}/members/bulk", h.addMembers)
		r.Get("/{groupID}/activity", h.groupActivity)
	})

	router.Post("/expenses", h.createExpense)
	router.Post("/settlements", h.createSettlement)
	router.Get("/balances/{groupID}", h.balances)
	router.Get("/ledger/{groupID}", h.ledgerEntries)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(adminTokenHash))
		r.Post("/reset", h.resetAll)
		r.Post("/groups/{groupID}/reset", h.resetGroup)
	})

	return router
}
