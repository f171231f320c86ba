package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-pos-backend/internal/domain"
)

func TestSessionItems_Lifecycle(t *testing.T) {
	db := newSchemaDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedOpenSession(t, db, "s1", 1, 5, now)

	items := []domain.SessionItem{
		domain.LineInput{Name: "Cola", UnitPrice: 3000, Quantity: 2}.Confirm("i1", "s1", now),
		domain.LineInput{Name: "Fries", UnitPrice: 4000, Quantity: 1}.Confirm("i2", "s1", now.Add(time.Second)),
	}
	if err := CreateSessionItems(ctx, db, items); err != nil {
		t.Fatalf("CreateSessionItems: %v", err)
	}
	if err := CreateSessionItems(ctx, db, nil); err != nil {
		t.Fatalf("empty batch must be a no-op: %v", err)
	}
	if err := IncrementItemQuantity(ctx, db, "i1", 1, 0, now); err != nil {
		t.Fatalf("IncrementItemQuantity: %v", err)
	}
	if err := IncrementItemQuantity(ctx, db, "nope", 1, 0, now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	it, err := GetSessionItem(ctx, db, "i1")
	if err != nil || it.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %+v %v", it, err)
	}

	if err := SetCookStatus(ctx, db, "i2", domain.CookCanceled, now); err != nil {
		t.Fatalf("SetCookStatus: %v", err)
	}
	merge, err := ListMergeableItems(ctx, db, "s1")
	if err != nil || len(merge) != 1 || merge[0].ID != "i1" {
		t.Fatalf("canceled rows must not be mergeable: %+v %v", merge, err)
	}
	if n, _ := CountActiveItems(ctx, db, "s1"); n != 1 {
		t.Fatalf("expected 1 active item, got %d", n)
	}

	n, err := CancelSessionItems(ctx, db, "s1", now)
	if err != nil || n != 1 {
		t.Fatalf("CancelSessionItems = %d, %v", n, err)
	}
	all, _ := ListSessionItems(ctx, db, "s1")
	if len(all) != 2 {
		t.Fatalf("cancel must keep rows, got %d", len(all))
	}
	for _, it := range all {
		if it.CookStatus != domain.CookCanceled {
			t.Fatalf("expected canceled, got %+v", it)
		}
	}
}

func TestPendingItems_CRUD(t *testing.T) {
	db := newSchemaDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, name := range []string{"Cola", "Fries"} {
		p := &domain.PendingItem{ID: name, StoreID: 1, TableNumber: 5, Name: name, UnitPrice: 1000, Quantity: 1, CreatedAt: now.Add(time.Duration(i) * time.Second)}
		if err := CreatePendingItem(ctx, db, p); err != nil {
			t.Fatalf("CreatePendingItem: %v", err)
		}
	}
	list, err := ListPendingItems(ctx, db, 1, 5)
	if err != nil || len(list) != 2 || list[0].Name != "Cola" {
		t.Fatalf("unexpected list: %+v %v", list, err)
	}
	if err := UpdatePendingItem(ctx, db, 1, 5, "Cola", 4, 500, now); err != nil {
		t.Fatalf("UpdatePendingItem: %v", err)
	}
	p, _ := GetPendingItem(ctx, db, 1, 5, "Cola")
	if p.Quantity != 4 || p.Discount != 500 {
		t.Fatalf("update not applied: %+v", p)
	}
	// wrong table scope
	if err := UpdatePendingItem(ctx, db, 1, 6, "Cola", 1, 0, now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound across tables, got %v", err)
	}
	if err := DeletePendingItem(ctx, db, 1, 5, "Fries"); err != nil {
		t.Fatalf("DeletePendingItem: %v", err)
	}
	if err := DeletePendingItem(ctx, db, 1, 5, "Fries"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	n, err := ClearPendingItems(ctx, db, 1, 5)
	if err != nil || n != 1 {
		t.Fatalf("ClearPendingItems = %d, %v", n, err)
	}
}
