package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/model"
)

func TestCreateInvestment_Defaults(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "investor@example.com")

	inv := &model.Investment{
		UserID:        user.ID,
		Amount:        500,
		PaymentMethod: "usdt-trc20",
	}
	if err := db.CreateInvestment(context.Background(), inv); err != nil {
		t.Fatalf("CreateInvestment() error = %v", err)
	}

	if inv.ID == "" {
		t.Error("CreateInvestment() did not set inv.ID")
	}
	if inv.ProfitRate != model.DefaultProfitRate {
		t.Errorf("ProfitRate = %v, want %v", inv.ProfitRate, model.DefaultProfitRate)
	}
	if inv.Status != model.InvestmentStatusPending {
		t.Errorf("Status = %q, want pending", inv.Status)
	}
	if inv.StartDate.IsZero() {
		t.Error("CreateInvestment() did not set StartDate")
	}
}

func TestListInvestmentsByUser(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	for _, amount := range []float64{100, 250} {
		inv := &model.Investment{UserID: alice.ID, Amount: amount, PaymentMethod: "btc"}
		if err := db.CreateInvestment(context.Background(), inv); err != nil {
			t.Fatalf("CreateInvestment() error = %v", err)
		}
	}

	got, err := db.ListInvestmentsByUser(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListInvestmentsByUser() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len(alice investments) = %d, want 2", len(got))
	}

	gotBob, err := db.ListInvestmentsByUser(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("ListInvestmentsByUser() error = %v", err)
	}
	if len(gotBob) != 0 {
		t.Errorf("len(bob investments) = %d, want 0", len(gotBob))
	}
}

func TestSettings_GetSetAll(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.GetSetting(ctx, "vip_price")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetSetting() on empty store error = %v, want ErrNotFound", err)
	}

	if err := db.SetSetting(ctx, "vip_price", "29.99"); err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}

	got, err := db.GetSetting(ctx, "vip_price")
	if err != nil {
		t.Fatalf("GetSetting() error = %v", err)
	}
	if got != "29.99" {
		t.Errorf("value = %q, want 29.99", got)
	}

	// Upsert path: same key, new value.
	if err := db.SetSetting(ctx, "vip_price", "19.99"); err != nil {
		t.Fatalf("SetSetting() upsert error = %v", err)
	}
	if err := db.SetSetting(ctx, "wallet_btc", "bc1qexample"); err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}

	all, err := db.AllSettings(ctx)
	if err != nil {
		t.Fatalf("AllSettings() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want 2", len(all))
	}
	if all["vip_price"] != "19.99" {
		t.Errorf("vip_price = %q, want 19.99", all["vip_price"])
	}
}
