package webapi

import (
	"github.com/amirasaad/banking/pkg/account"
	"github.com/amirasaad/banking/pkg/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest is the payload for opening a new account.
type CreateAccountRequest struct {
	Currency       string          `json:"currency" validate:"omitempty,len=3,uppercase"`
	Type           string          `json:"type" validate:"omitempty,oneof=CHECKING SAVINGS"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// AccountDTO is the API representation of an account.
type AccountDTO struct {
	Number    string `json:"number"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
}

// ToAccountDTO maps a domain.Account to its API representation.
func ToAccountDTO(a *domain.Account) *AccountDTO {
	if a == nil {
		return nil
	}
	return &AccountDTO{
		Number:    a.Number,
		Balance:   a.Balance.StringFixed(2),
		Currency:  a.Currency,
		Type:      string(a.Type),
		CreatedAt: a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// AccountRoutes registers account lifecycle and lookup endpoints.
//
// Routes:
//   - POST /accounts                    : Open a new account.
//   - GET  /accounts/:number            : Retrieve the account.
//   - GET  /accounts/:number/balance    : Retrieve the account balance.
func AccountRoutes(app *fiber.App, svc *account.Service) {
	app.Post("/accounts", func(c *fiber.Ctx) error {
		input, err := BindAndValidate[CreateAccountRequest](c)
		if err != nil {
			return nil
		}
		currency := input.Currency
		if currency == "" {
			currency = "USD"
		}
		accountType := domain.AccountType(input.Type)
		if accountType == "" {
			accountType = domain.AccountTypeChecking
		}
		acct, err := svc.Create(c.UserContext(), currency, accountType, input.InitialBalance)
		if err != nil {
			return DomainErrorResponse(c, err)
		}
		return SuccessResponseJSON(
			c, fiber.StatusCreated, "Account created", ToAccountDTO(acct))
	})

	app.Get("/accounts/:number", func(c *fiber.Ctx) error {
		acct, err := svc.Get(c.UserContext(), c.Params("number"))
		if err != nil {
			return DomainErrorResponse(c, err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Account retrieved", ToAccountDTO(acct))
	})

	app.Get("/accounts/:number/balance", func(c *fiber.Ctx) error {
		balance, err := svc.Balance(c.UserContext(), c.Params("number"))
		if err != nil {
			return DomainErrorResponse(c, err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Balance retrieved", fiber.Map{
			"account": c.Params("number"),
			"balance": balance.StringFixed(2),
		})
	})
}
