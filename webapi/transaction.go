package webapi

import (
	"github.com/amirasaad/banking/pkg/domain"
	"github.com/amirasaad/banking/pkg/engine"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// DepositRequest is the payload for a deposit.
type DepositRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description"`
}

// WithdrawRequest is the payload for a withdrawal.
type WithdrawRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description"`
}

// TransferRequest is the payload for a transfer between two accounts.
type TransferRequest struct {
	ToAccount   string          `json:"to_account" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description"`
}

// TransactionDTO is the API representation of a transaction.
type TransactionDTO struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Description   string `json:"description,omitempty"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

// ToTransactionDTO maps a domain.Transaction to its API representation.
func ToTransactionDTO(tx *domain.Transaction) *TransactionDTO {
	if tx == nil {
		return nil
	}
	return &TransactionDTO{
		ID:            tx.ID.String(),
		AccountNumber: tx.AccountNumber,
		Type:          string(tx.Type),
		Amount:        tx.Amount.StringFixed(2),
		Description:   tx.Description,
		Status:        string(tx.Status),
		CreatedAt:     tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// TransactionRoutes registers the money movement endpoints.
//
// Routes:
//   - POST /accounts/:number/deposit       : Deposit funds into the account.
//   - POST /accounts/:number/withdraw      : Withdraw funds from the account.
//   - POST /accounts/:number/transfer      : Transfer funds to another account.
//   - GET  /accounts/:number/transactions  : List the account's transactions.
func TransactionRoutes(app *fiber.App, svc *engine.Service) {
	app.Post("/accounts/:number/deposit", func(c *fiber.Ctx) error {
		input, err := BindAndValidate[DepositRequest](c)
		if err != nil {
			return nil
		}
		tx, err := svc.Deposit(
			c.UserContext(), c.Params("number"), input.Amount, input.Description)
		if err != nil {
			return DomainErrorResponse(c, err)
		}
		return SuccessResponseJSON(
			c, fiber.StatusCreated, "Deposit completed", ToTransactionDTO(tx))
	})

	app.Post("/accounts/:number/withdraw", func(c *fiber.Ctx) error {
		input, err := BindAndValidate[WithdrawRequest](c)
		if err != nil {
			return nil
		}
		tx, err := svc.Withdraw(
			c.UserContext(), c.Params("number"), input.Amount, input.Description)
		if err != nil {
			return DomainErrorResponse(c, err)
		}
		return SuccessResponseJSON(
			c, fiber.StatusCreated, "Withdrawal completed", ToTransactionDTO(tx))
	})

	app.Post("/accounts/:number/transfer", func(c *fiber.Ctx) error {
		input, err := BindAndValidate[TransferRequest](c)
		if err != nil {
			return nil
		}
		tx, err := svc.Transfer(
			c.UserContext(), c.Params("number"), input.ToAccount,
			input.Amount, input.Description)
		if err != nil {
			return DomainErrorResponse(c, err)
		}
		return SuccessResponseJSON(
			c, fiber.StatusCreated, "Transfer completed", ToTransactionDTO(tx))
	})

	app.Get("/accounts/:number/transactions", func(c *fiber.Ctx) error {
		txs, err := svc.AccountTransactions(c.UserContext(), c.Params("number"))
		if err != nil {
			return DomainErrorResponse(c, err)
		}
		dtos := make([]*TransactionDTO, 0, len(txs))
		for i := range txs {
			dtos = append(dtos, ToTransactionDTO(&txs[i]))
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Transactions retrieved", dtos)
	})
}
