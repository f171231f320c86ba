package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CardInput is a raw card as typed on the terminal.
type CardInput struct {
	Number string
	Expiry string // MM/YY
	CVC    string
}

// CardAuthorization is what the gateway authorizes.
type CardAuthorization struct {
	Number            string
	Expiry            string
	Amount            int64
	InstallmentMonths int
}

// Approval is the gateway's approval record.
type Approval struct {
	ApprovalNumber    string    `json:"approvalNumber"`
	CardCompany       string    `json:"cardCompany"`
	TransactionID     string    `json:"transactionId"`
	ApprovedAt        time.Time `json:"approvedAt"`
	InstallmentMonths int       `json:"installmentMonths"`
	MaskedNumber      string    `json:"maskedCardNumber"`
}

// CardGateway authorizes and voids card payments. Business declines are
// returned as *DeclineError.
type CardGateway interface {
	Authorize(ctx context.Context, auth CardAuthorization) (*Approval, error)
	Cancel(ctx context.Context, transactionID string) error
}

// ValidateCard checks number format (13–19 digits after removing spaces and
// dashes, Luhn checksum), MM/YY expiry not in the past at now, and a 3–4
// digit CVC. It returns the cleaned number or a *CardError.
func ValidateCard(in CardInput, now time.Time) (string, error) {
	num := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(in.Number))
	if len(num) < 13 || len(num) > 19 || !allDigits(num) || !luhn(num) {
		return "", &CardError{Code: CodeInvalidCardFormat, Message: "card number is invalid"}
	}

	exp := strings.TrimSpace(in.Expiry)
	if len(exp) != 5 || exp[2] != '/' || !allDigits(exp[:2]) || !allDigits(exp[3:]) {
		return "", &CardError{Code: CodeInvalidExpiry, Message: "expiry must be MM/YY"}
	}
	mm, _ := strconv.Atoi(exp[:2])
	yy, _ := strconv.Atoi(exp[3:])
	if mm < 1 || mm > 12 {
		return "", &CardError{Code: CodeInvalidExpiry, Message: "expiry month must be 01-12"}
	}
	// A card is valid through the last day of its expiry month.
	endOfMonth := time.Date(2000+yy, time.Month(mm)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.Before(endOfMonth) {
		return "", &CardError{Code: CodeInvalidExpiry, Message: "card has expired"}
	}

	cvc := strings.TrimSpace(in.CVC)
	if len(cvc) < 3 || len(cvc) > 4 || !allDigits(cvc) {
		return "", &CardError{Code: CodeInvalidCVC, Message: "CVC must be 3 or 4 digits"}
	}
	return num, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func luhn(num string) bool {
	sum, double := 0, false
	for i := len(num) - 1; i >= 0; i-- {
		d := int(num[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// CardCompany names the issuer network from the card prefix.
func CardCompany(num string) string {
	switch {
	case strings.HasPrefix(num, "34"), strings.HasPrefix(num, "37"):
		return "AMEX"
	case strings.HasPrefix(num, "35"):
		return "JCB"
	case strings.HasPrefix(num, "4"):
		return "VISA"
	case len(num) >= 2 && num[0] == '5' && num[1] >= '1' && num[1] <= '5':
		return "MASTERCARD"
	case strings.HasPrefix(num, "2"):
		return "MASTERCARD"
	case strings.HasPrefix(num, "9"):
		return "BC"
	}
	return "UNKNOWN"
}

// MaskCard keeps the first six and last four digits.
func MaskCard(num string) string {
	if len(num) <= 10 {
		return strings.Repeat("*", len(num))
	}
	return num[:6] + strings.Repeat("*", len(num)-10) + num[len(num)-4:]
}

// SimulatedGateway is a deterministic stand-in for the VAN. A few well-known
// test numbers decline with fixed codes and amounts above Limit decline with
// LIMIT_EXCEEDED; everything else is approved.
type SimulatedGateway struct {
	Limit int64
	Now   func() time.Time
}

var simulatedDeclines = map[string]DeclineError{
	"4000000000000002": {Code: CodeCardDeclined, Message: "the card was declined by the issuer"},
	"4000000000009995": {Code: CodeInsufficientFunds, Message: "insufficient funds"},
	"4000000000000069": {Code: CodeExpiredCard, Message: "the card has expired"},
	"4000000000009987": {Code: CodeLimitExceeded, Message: "card limit exceeded"},
}

// Authorize implements CardGateway.
func (g *SimulatedGateway) Authorize(ctx context.Context, auth CardAuthorization) (*Approval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d, ok := simulatedDeclines[auth.Number]; ok {
		return nil, &DeclineError{Code: d.Code, Message: d.Message}
	}
	limit := g.Limit
	if limit <= 0 {
		limit = 10_000_000
	}
	if auth.Amount > limit {
		return nil, &DeclineError{Code: CodeLimitExceeded, Message: fmt.Sprintf("amount exceeds the %d limit", limit)}
	}
	id := uuid.New()
	return &Approval{
		ApprovalNumber:    fmt.Sprintf("%08d", uint32(id.ID())%100000000),
		CardCompany:       CardCompany(auth.Number),
		TransactionID:     "VAN-" + id.String(),
		ApprovedAt:        clock(g.Now),
		InstallmentMonths: auth.InstallmentMonths,
		MaskedNumber:      MaskCard(auth.Number),
	}, nil
}

// Cancel implements CardGateway. The simulator always succeeds.
func (g *SimulatedGateway) Cancel(ctx context.Context, transactionID string) error {
	return ctx.Err()
}
