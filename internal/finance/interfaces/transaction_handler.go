package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	"github.com/sebuszqo/BudgetManager/internal/identity"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const maxBulkTransactions = 500

type TransactionServiceInterface interface {
	CreateTransaction(ctx context.Context, owner identity.Owner, transaction *domain.Transaction) error
	CreateTransactionsBulk(ctx context.Context, owner identity.Owner, transactions []*domain.Transaction) error
	GetUserTransactions(ctx context.Context, owner identity.Owner, filter domain.TransactionFilter) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, owner identity.Owner, transactionID uuid.UUID) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, owner identity.Owner, transactionID uuid.UUID, patch domain.TransactionPatch) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, owner identity.Owner, transactionID uuid.UUID) error
}

type TransactionHandler struct {
	responder
	service TransactionServiceInterface
}

func NewTransactionHandler(service TransactionServiceInterface, respondJSON RespondJSONFunc, respondError RespondErrorFunc, log logrus.FieldLogger) *TransactionHandler {
	if service == nil {
		panic("transaction service must not be nil")
	}
	return &TransactionHandler{responder: newResponder(respondJSON, respondError, log), service: service}
}

type transactionRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Category      string          `json:"category"`
	Description   *string         `json:"description"`
	PaymentMethod *string         `json:"payment_method"`
	Date          *flexibleTime   `json:"date"`
}

func (req transactionRequest) toDomain() *domain.Transaction {
	transaction := &domain.Transaction{
		Amount:        req.Amount,
		Kind:          domain.TransactionKind(req.Type),
		Category:      req.Category,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
	}
	if req.Date != nil {
		transaction.OccurredAt = req.Date.Time
	}
	return transaction
}

type transactionPatchRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	Type          *string          `json:"type"`
	Category      *string          `json:"category"`
	Description   *string          `json:"description"`
	PaymentMethod *string          `json:"payment_method"`
	Date          *flexibleTime    `json:"date"`
}

func (req transactionPatchRequest) toDomain() domain.TransactionPatch {
	patch := domain.TransactionPatch{
		Amount:        req.Amount,
		Category:      req.Category,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
		OccurredAt:    req.Date.ptr(),
	}
	if req.Type != nil {
		kind := domain.TransactionKind(*req.Type)
		patch.Kind = &kind
	}
	return patch
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !h.decode(w, r, &req) {
		return
	}

	transaction := req.toDomain()
	if err := h.service.CreateTransaction(r.Context(), owner, transaction); err != nil {
		h.fail(w, r, err, "create transaction")
		return
	}
	h.success(w, http.StatusCreated, "Transaction successfully created.", transaction)
}

func (h *TransactionHandler) CreateTransactionsBulk(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req struct {
		Transactions []transactionRequest `json:"transactions"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Transactions) == 0 {
		h.respondError(w, http.StatusBadRequest, "Invalid request body - no transactions provided")
		return
	}
	if len(req.Transactions) > maxBulkTransactions {
		h.respondError(w, http.StatusBadRequest, "Too many transactions in one request")
		return
	}

	transactions := make([]*domain.Transaction, len(req.Transactions))
	for i, item := range req.Transactions {
		transactions[i] = item.toDomain()
	}
	if err := h.service.CreateTransactionsBulk(r.Context(), owner, transactions); err != nil {
		h.fail(w, r, err, "create transactions")
		return
	}
	h.success(w, http.StatusCreated, "Transactions successfully created.", transactions)
}

func (h *TransactionHandler) GetUserTransactions(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	var filter domain.TransactionFilter

	if raw := query.Get("type"); raw != "" {
		kind, err := domain.ParseTransactionKind(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid transaction type")
			return
		}
		filter.Kind = &kind
	}
	filter.Category = query.Get("category")

	if raw := query.Get("start_date"); raw != "" {
		from, _, err := parseDate(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid start date format")
			return
		}
		filter.From = &from
	}
	if raw := query.Get("end_date"); raw != "" {
		to, dateOnly, err := parseDate(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid end date format")
			return
		}
		if dateOnly {
			// a plain end date includes the whole day
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		filter.To = &to
	}

	var err error
	if filter.Limit, err = intQuery(r, "limit", 0); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid limit value")
		return
	}
	if filter.Page, err = intQuery(r, "page", 0); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid page value")
		return
	}

	transactions, err := h.service.GetUserTransactions(r.Context(), owner, filter)
	if err != nil {
		h.fail(w, r, err, "retrieve transactions")
		return
	}
	h.success(w, http.StatusOK, "Transactions retrieved successfully.", transactions)
}

func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	transactionID, ok := h.pathID(w, r, "transactionID", "transaction")
	if !ok {
		return
	}

	transaction, err := h.service.GetTransaction(r.Context(), owner, transactionID)
	if err != nil {
		h.fail(w, r, err, "retrieve transaction")
		return
	}
	h.success(w, http.StatusOK, "Transaction retrieved successfully.", transaction)
}

func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	transactionID, ok := h.pathID(w, r, "transactionID", "transaction")
	if !ok {
		return
	}
	var req transactionPatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	transaction, err := h.service.UpdateTransaction(r.Context(), owner, transactionID, req.toDomain())
	if err != nil {
		h.fail(w, r, err, "update transaction")
		return
	}
	h.success(w, http.StatusOK, "Transaction successfully updated.", transaction)
}

func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	transactionID, ok := h.pathID(w, r, "transactionID", "transaction")
	if !ok {
		return
	}

	if err := h.service.DeleteTransaction(r.Context(), owner, transactionID); err != nil {
		h.fail(w, r, err, "delete transaction")
		return
	}
	h.success(w, http.StatusOK, "Transaction successfully deleted.", nil)
}
