package webapi

import (
	"strconv"
	"time"

	"github.com/amirasaad/banking/pkg/reconcile"
	"github.com/gofiber/fiber/v2"
)

// windowFromQuery parses optional from/to RFC 3339 query parameters,
// defaulting to the last 30 days.
func windowFromQuery(c *fiber.Ctx) (time.Time, time.Time, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}
	return from, to, nil
}

// RecoveryRoutes registers the reconciliation and data recovery endpoints.
//
// Routes:
//   - GET  /recovery/accounts/:number/validate-balance      : Compare live vs reconstructed balance.
//   - GET  /recovery/accounts/:number/missing-transactions  : Detect audited but missing transactions.
//   - GET  /recovery/accounts/:number/integrity-check       : Full integrity report for the account.
//   - POST /recovery/audit-logs/:id/recover                 : Attempt recovery for one audit entry.
func RecoveryRoutes(app *fiber.App, svc *reconcile.Service) {
	app.Get("/recovery/accounts/:number/validate-balance", func(c *fiber.Ctx) error {
		valid, err := svc.ValidateBalance(c.UserContext(), c.Params("number"))
		if err != nil {
			return DomainErrorResponse(c, err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Balance validated", fiber.Map{
			"account": c.Params("number"),
			"valid":   valid,
		})
	})

	app.Get("/recovery/accounts/:number/missing-transactions", func(c *fiber.Ctx) error {
		from, to, err := windowFromQuery(c)
		if err != nil {
			return ErrorResponseJSON(
				c, fiber.StatusBadRequest, "Invalid time window", err.Error())
		}
		anomalies, err := svc.DetectMissingTransactions(
			c.UserContext(), c.Params("number"), from, to)
		if err != nil {
			return DomainErrorResponse(c, err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Scan completed", fiber.Map{
			"account":   c.Params("number"),
			"anomalies": anomalies,
		})
	})

	app.Get("/recovery/accounts/:number/integrity-check", func(c *fiber.Ctx) error {
		report, err := svc.PerformIntegrityCheck(c.UserContext(), c.Params("number"))
		if err != nil {
			return DomainErrorResponse(c, err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Integrity check completed", report)
	})

	app.Post("/recovery/audit-logs/:id/recover", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return ErrorResponseJSON(
				c, fiber.StatusBadRequest, "Invalid audit log id", err.Error())
		}
		recovered, err := svc.RecoverMissingTransaction(c.UserContext(), id)
		if err != nil {
			return DomainErrorResponse(c, err)
		}
		message := "Manual recovery required"
		if recovered {
			message = "Transaction already present"
		}
		return SuccessResponseJSON(c, fiber.StatusOK, message, fiber.Map{
			"audit_log_id": id,
			"recovered":    recovered,
		})
	})
}
