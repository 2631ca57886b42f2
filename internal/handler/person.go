package handler

import (
	"log/slog"
	"net/http"

	"github.com/adampos/medialender/internal/service"
)

// PersonHandler serves the borrower directory of an account.
type PersonHandler struct {
	persons *service.PersonService
	logger  *slog.Logger
}

func NewPersonHandler(persons *service.PersonService, logger *slog.Logger) *PersonHandler {
	return &PersonHandler{persons: persons, logger: logger}
}

type personRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (req personRequest) toInput() service.PersonInput {
	return service.PersonInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		Email:     req.Email,
		Phone:     req.Phone,
	}
}

// HandleCreate adds a borrower.
//
// HTTP: POST /api/persons
func (h *PersonHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var req personRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	person, err := h.persons.Create(r.Context(), userID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, person)
}

// HandleList returns all borrowers of the account.
//
// HTTP: GET /api/persons
func (h *PersonHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	persons, err := h.persons.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, persons)
}

// HandleSearch finds borrowers by name prefix.
//
// HTTP: GET /api/persons/search?firstName=ma&lastName=mu
func (h *PersonHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	persons, err := h.persons.Search(r.Context(), userID,
		r.URL.Query().Get("firstName"),
		r.URL.Query().Get("lastName"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, persons)
}

// HandleGet returns one borrower.
//
// HTTP: GET /api/persons/{id}
func (h *PersonHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	person, err := h.persons.GetByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

// HandleUpdate rewrites a borrower's contact data.
//
// HTTP: PUT /api/persons/{id}
func (h *PersonHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var req personRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	person, err := h.persons.Update(r.Context(), userID, r.PathValue("id"), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

// HandleDelete removes a borrower, releasing any media they still hold.
//
// HTTP: DELETE /api/persons/{id}
func (h *PersonHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.persons.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
