package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-pos-backend/internal/domain"
	"github.com/tbourn/go-pos-backend/internal/repo"
)

// Append outcomes reported per line.
const (
	ActionQuantityIncreased = "quantity_increased"
	ActionNewItemAdded      = "new_item_added"
)

var spaceRE = regexp.MustCompile(`\s+`)

// NormalizeItemName trims, collapses inner whitespace and applies Unicode NFC
// so that visually identical names typed on different terminals match.
func NormalizeItemName(s string) string {
	return norm.NFC.String(spaceRE.ReplaceAllString(strings.TrimSpace(s), " "))
}

// normalizeLines validates a batch and returns normalized copies plus the
// batch amount.
func normalizeLines(in []domain.LineInput) ([]domain.LineInput, int64, error) {
	if len(in) == 0 {
		return nil, 0, fmt.Errorf("%w: items must not be empty", ErrInvalidInput)
	}
	out := make([]domain.LineInput, 0, len(in))
	var sum int64
	for i, l := range in {
		l.Name = NormalizeItemName(l.Name)
		l.Notes = strings.TrimSpace(l.Notes)
		switch {
		case l.Name == "":
			return nil, 0, fmt.Errorf("%w: item %d has no name", ErrInvalidInput, i)
		case l.UnitPrice < 0:
			return nil, 0, fmt.Errorf("%w: item %d has a negative price", ErrInvalidInput, i)
		case l.Quantity <= 0:
			return nil, 0, fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidInput, i)
		case l.Discount < 0 || l.Discount > l.UnitPrice*int64(l.Quantity):
			return nil, 0, fmt.Errorf("%w: item %d discount out of range", ErrInvalidInput, i)
		}
		sum += l.Amount()
		out = append(out, l)
	}
	return out, sum, nil
}

type mergeKey struct {
	name  string
	price int64
}

// ConsolidateBatch folds a table's pending items into one line per
// (name, price, discount). Quantities and discounts are summed, so the batch
// amount equals the sum of the original line amounts. First-seen order is
// kept and distinct notes are joined.
func ConsolidateBatch(pending []domain.PendingItem) []domain.LineInput {
	type batchKey struct {
		name     string
		price    int64
		discount int64
	}
	idx := make(map[batchKey]int, len(pending))
	out := make([]domain.LineInput, 0, len(pending))
	for _, p := range pending {
		l := domain.FromPending(p)
		l.Name = NormalizeItemName(l.Name)
		k := batchKey{l.Name, l.UnitPrice, l.Discount}
		i, ok := idx[k]
		if !ok {
			idx[k] = len(out)
			out = append(out, l)
			continue
		}
		out[i].Quantity += l.Quantity
		out[i].Discount += l.Discount
		if n := strings.TrimSpace(l.Notes); n != "" && !strings.Contains(out[i].Notes, n) {
			if out[i].Notes == "" {
				out[i].Notes = n
			} else {
				out[i].Notes += ", " + n
			}
		}
	}
	return out
}

// appendLines merges lines into the session's confirmed items. A line whose
// (normalized name, unit price) matches a non-canceled row increments that
// row; otherwise a new row is inserted. Lines within the batch merge with
// each other the same way. It returns the touched rows (post-merge state) and
// one action per input line. The session total is not changed here.
func appendLines(ctx context.Context, tx *gorm.DB, sessionID string, lines []domain.LineInput, now time.Time) ([]domain.SessionItem, []string, error) {
	existing, err := repo.ListMergeableItems(ctx, tx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	type slot struct {
		item    domain.SessionItem
		created bool
		addQty  int
		addDisc int64
	}
	byKey := make(map[mergeKey]*slot, len(existing)+len(lines))
	for _, it := range existing {
		k := mergeKey{NormalizeItemName(it.Name), it.UnitPrice}
		if _, dup := byKey[k]; !dup {
			byKey[k] = &slot{item: it}
		}
	}

	var order []*slot
	seen := make(map[*slot]bool)
	actions := make([]string, 0, len(lines))
	for _, l := range lines {
		k := mergeKey{l.Name, l.UnitPrice}
		sl, ok := byKey[k]
		if !ok {
			sl = &slot{item: l.Confirm(uuid.NewString(), sessionID, now), created: true}
			byKey[k] = sl
			actions = append(actions, ActionNewItemAdded)
		} else {
			if sl.created {
				sl.item.Quantity += l.Quantity
				sl.item.Discount += l.Discount
			} else {
				sl.addQty += l.Quantity
				sl.addDisc += l.Discount
			}
			actions = append(actions, ActionQuantityIncreased)
		}
		if !seen[sl] {
			seen[sl] = true
			order = append(order, sl)
		}
	}

	var creates []domain.SessionItem
	for _, sl := range order {
		if sl.created {
			creates = append(creates, sl.item)
			continue
		}
		if err := repo.IncrementItemQuantity(ctx, tx, sl.item.ID, sl.addQty, sl.addDisc, now); err != nil {
			return nil, nil, err
		}
		sl.item.Quantity += sl.addQty
		sl.item.Discount += sl.addDisc
		sl.item.UpdatedAt = now
	}
	if err := repo.CreateSessionItems(ctx, tx, creates); err != nil {
		return nil, nil, err
	}

	touched := make([]domain.SessionItem, 0, len(order))
	for _, sl := range order {
		touched = append(touched, sl.item)
	}
	return touched, actions, nil
}
