// Package services – GuestService
//
// GuestService reconciles customer identities: walk-in guests are keyed by
// phone number and may later be converted into a member account, at which
// point their session history and per-store visit counters move to the
// member.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-pos-backend/internal/domain"
	"github.com/tbourn/go-pos-backend/internal/repo"
)

// GuestProfile is a guest with its visit counters.
type GuestProfile struct {
	Guest  *domain.Guest          `json:"guest"`
	Visits []domain.CustomerVisit `json:"visits"`
	// Visit is the counter for the store the guest was resolved at, if any.
	Visit   *domain.CustomerVisit `json:"storeVisit,omitempty"`
	Created bool                  `json:"created"`
}

// ConvertResult reports a guest-to-member conversion.
type ConvertResult struct {
	Guest         *domain.Guest          `json:"guest"`
	MemberID      string                 `json:"memberId"`
	SessionsMoved int64                  `json:"sessionsMoved"`
	Visits        []domain.CustomerVisit `json:"visits"`
}

// GuestService implements guest resolution and conversion.
type GuestService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (s *GuestService) now() time.Time { return clock(s.Now) }

// NormalizePhone strips everything but digits and requires 9 to 15 of them.
func NormalizePhone(s string) (string, error) {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) < 9 || len(out) > 15 {
		return "", fmt.Errorf("%w: phone number must have 9 to 15 digits", ErrInvalidInput)
	}
	return out, nil
}

// GuestKey is the customer_visits key of a guest.
func GuestKey(id string) string { return "guest:" + id }

// MemberKey is the customer_visits key of a member.
func MemberKey(memberID string) string { return "member:" + memberID }

func customerKey(g *domain.Guest) string {
	if g.MemberID != "" {
		return MemberKey(g.MemberID)
	}
	return GuestKey(g.ID)
}

// Resolve finds or creates the guest for phone and returns it with its visit
// counters. storeID, when positive, selects the Visit entry.
func (s *GuestService) Resolve(ctx context.Context, storeID int64, phone, name string) (*GuestProfile, error) {
	ctx, span := otel.Tracer("services/GuestService").Start(ctx, "Resolve",
		trace.WithAttributes(attribute.Int64("store.id", storeID)),
	)
	defer span.End()

	phone, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	g, created, err := s.findOrCreate(ctx, s.DB, phone, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	out := &GuestProfile{Guest: g, Created: created}
	if out.Visits, err = repo.ListVisits(ctx, s.DB, customerKey(g)); err != nil {
		return nil, err
	}
	for i := range out.Visits {
		if out.Visits[i].StoreID == storeID {
			out.Visit = &out.Visits[i]
		}
	}
	return out, nil
}

func (s *GuestService) findOrCreate(ctx context.Context, db *gorm.DB, phone, name string) (*domain.Guest, bool, error) {
	g, err := repo.FindGuestByPhone(ctx, db, phone)
	if err == nil {
		return g, false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}
	// Nested so a unique violation only rolls back to a savepoint when db is
	// already a transaction.
	err = db.Transaction(func(inner *gorm.DB) error {
		var cerr error
		g, cerr = repo.CreateGuest(ctx, inner, phone, name)
		return cerr
	})
	if err == nil {
		return g, true, nil
	}
	if !repo.IsUniqueViolation(err) {
		return nil, false, err
	}
	g, err = repo.FindGuestByPhone(ctx, db, phone)
	return g, false, err
}

// Visits returns a guest and its counters.
func (s *GuestService) Visits(ctx context.Context, guestID string) (*GuestProfile, error) {
	g, err := repo.GetGuest(ctx, s.DB, guestID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrGuestNotFound
	}
	if err != nil {
		return nil, err
	}
	visits, err := repo.ListVisits(ctx, s.DB, customerKey(g))
	if err != nil {
		return nil, err
	}
	return &GuestProfile{Guest: g, Visits: visits}, nil
}

// RecordVisitTx bumps the visit counter of the session's customer at its
// store: member id first, then guest phone. Anonymous sessions are skipped.
func (s *GuestService) RecordVisitTx(ctx context.Context, tx *gorm.DB, sess *domain.Session, at time.Time) error {
	var key string
	switch {
	case sess.MemberID != "":
		key = MemberKey(sess.MemberID)
	case sess.GuestPhone != "":
		g, _, err := s.findOrCreate(ctx, tx, sess.GuestPhone, sess.CustomerName)
		if err != nil {
			return err
		}
		key = customerKey(g)
	default:
		return nil
	}
	return repo.AddVisit(ctx, tx, sess.StoreID, key, 1, sess.PaidAmount, at)
}

// Convert links a guest to memberID, moves the guest's sessions to the member
// and merges every store counter additively into the member's counters, in
// one transaction. Converting again to the same member is a no-op apart from
// picking up sessions recorded since; a different member is refused.
func (s *GuestService) Convert(ctx context.Context, guestID, memberID string) (*ConvertResult, error) {
	ctx, span := otel.Tracer("services/GuestService").Start(ctx, "Convert",
		trace.WithAttributes(attribute.String("guest.id", guestID)),
	)
	defer span.End()

	memberID = strings.TrimSpace(memberID)
	if memberID == "" || len(memberID) > 64 {
		return nil, fmt.Errorf("%w: memberId is required", ErrInvalidInput)
	}

	out := &ConvertResult{MemberID: memberID}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := repo.GetGuest(ctx, tx, guestID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrGuestNotFound
		}
		if err != nil {
			return err
		}
		if g.MemberID != "" && g.MemberID != memberID {
			return fmt.Errorf("%w: guest already converted", ErrInvalidTransition)
		}
		now := s.now()

		if out.SessionsMoved, err = repo.ReassignGuestSessions(ctx, tx, g.Phone, memberID); err != nil {
			return err
		}
		visits, err := repo.ListVisits(ctx, tx, GuestKey(g.ID))
		if err != nil {
			return err
		}
		for _, v := range visits {
			if err := repo.AddVisit(ctx, tx, v.StoreID, MemberKey(memberID), v.VisitCount, v.TotalSpent, v.LastVisitAt); err != nil {
				return err
			}
		}
		if err := repo.DeleteVisits(ctx, tx, GuestKey(g.ID)); err != nil {
			return err
		}
		if g.MemberID == "" {
			if err := repo.MarkGuestConverted(ctx, tx, g.ID, memberID, now); err != nil {
				return err
			}
		}
		if out.Guest, err = repo.GetGuest(ctx, tx, g.ID); err != nil {
			return err
		}
		out.Visits, err = repo.ListVisits(ctx, tx, MemberKey(memberID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
