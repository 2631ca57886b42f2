package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/adampos/medialender/internal/apperror"
	"github.com/adampos/medialender/internal/service"
)

// LoanHandler serves the lending lifecycle endpoints.
type LoanHandler struct {
	loans  *service.LoanService
	logger *slog.Logger
}

func NewLoanHandler(loans *service.LoanService, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{loans: loans, logger: logger}
}

type loanRequest struct {
	PersonID   string     `json:"personId"`
	MediaID    string     `json:"mediaId"`
	BorrowedAt *time.Time `json:"borrowedAt"`
	DueDate    *time.Time `json:"dueDate"`
}

type returnRequest struct {
	ReturnedAt *time.Time `json:"returnedAt"`
}

// HandleCreate lends a media item to a borrower. BorrowedAt and dueDate are
// optional; they default to now and one month from today.
//
// HTTP: POST /api/loans
func (h *LoanHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var req loanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	loan, err := h.loans.Create(r.Context(), userID, service.LoanInput{
		PersonID:   req.PersonID,
		MediaID:    req.MediaID,
		BorrowedAt: req.BorrowedAt,
		DueDate:    req.DueDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

// HandleReturn closes a loan. The return time is optional and defaults to
// now; an empty body is accepted.
//
// HTTP: PUT /api/loans/{id}/return
func (h *LoanHandler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var req returnRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	loan, err := h.loans.Return(r.Context(), userID, r.PathValue("id"), req.ReturnedAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

// HandleList returns the full lending history of the account.
//
// HTTP: GET /api/loans
func (h *LoanHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	loans, err := h.loans.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

// HandleListActive returns the loans that are still open.
//
// HTTP: GET /api/loans/active
func (h *LoanHandler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	loans, err := h.loans.ListActive(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

// HandleListOverdue returns open loans whose due date has passed. The
// optional currentDate query parameter (2006-01-02) moves the reference day;
// it defaults to today.
//
// HTTP: GET /api/loans/overdue?currentDate=2026-09-01
func (h *LoanHandler) HandleListOverdue(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var asOf *time.Time
	if raw := r.URL.Query().Get("currentDate"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, apperror.ValidationFailed("currentDate", "date must have the form 2006-01-02"))
			return
		}
		asOf = &parsed
	}

	loans, err := h.loans.ListOverdue(r.Context(), userID, asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

// HandleGet returns one loan.
//
// HTTP: GET /api/loans/{id}
func (h *LoanHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	loan, err := h.loans.GetByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}
