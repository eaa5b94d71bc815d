package order

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gupfee/greenhaus/internal/domain"
)

var expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)
var cvcPattern = regexp.MustCompile(`^\d{3,4}$`)

// MockSubmitter is a stand-in order processor used until a real backend is
// wired. It validates card details the way a gateway would and fabricates
// order numbers and payment transaction ids.
type MockSubmitter struct {
	// Err, when set, fails every submission with the given error.
	Err error

	seq atomic.Uint64
}

// Submit implements Submitter.
func (m *MockSubmitter) Submit(ctx context.Context, sub Submission) (*Confirmation, error) {
	const op = "order.submit"

	if m.Err != nil {
		return nil, domain.WrapError(m.Err, domain.EORDERSUBMIT, op, "order submission failed")
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapError(err, domain.EORDERSUBMIT, op, "order submission cancelled")
	}
	if len(sub.Items) == 0 {
		return nil, domain.Errorf(domain.EINVALID, op, "cannot submit an empty order")
	}

	if sub.PaymentMethod.Kind == "credit_card" {
		if err := validateCard(sub.PaymentMethod); err != nil {
			return nil, domain.WrapError(err, domain.EORDERSUBMIT, op, "payment details rejected")
		}
	}

	now := time.Now().UTC()
	seq := m.seq.Add(1)

	paymentID := "PAY-" + shortID()
	if sub.PaymentMethod.Kind == "credit_card" {
		paymentID = "ch_" + shortID()
	}

	return &Confirmation{
		OrderNumber: fmt.Sprintf("GH-%s-%04d", now.Format("20060102"), seq),
		PaymentID:   paymentID,
		SubmittedAt: now,
	}, nil
}

func validateCard(pm PaymentMethod) error {
	number := strings.ReplaceAll(pm.CardNumber, " ", "")
	if len(number) < 15 {
		return fmt.Errorf("invalid card number")
	}
	if !expiryPattern.MatchString(pm.CardExpiry) {
		return fmt.Errorf("invalid expiration date format (MM/YY)")
	}
	if !cvcPattern.MatchString(pm.CardCVC) {
		return fmt.Errorf("invalid CVC code")
	}
	if len(strings.TrimSpace(pm.CardName)) < 3 {
		return fmt.Errorf("invalid cardholder name")
	}

	parts := strings.Split(pm.CardExpiry, "/")
	month := parts[0]
	year := parts[1]
	expiry, err := time.Parse("01/06", month+"/"+year)
	if err != nil {
		return fmt.Errorf("invalid expiration date")
	}
	if expiry.AddDate(0, 1, 0).Before(time.Now()) {
		return fmt.Errorf("card has expired")
	}
	return nil
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:17]
}
