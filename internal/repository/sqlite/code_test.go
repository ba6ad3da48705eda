package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/model"
)

func TestCreateCode(t *testing.T) {
	db := newTestDB(t)

	expires := time.Now().UTC().AddDate(0, 0, 30)
	code := &model.VIPCode{
		Code:         "ABCDEF123456",
		DurationDays: 30,
		ExpiresAt:    &expires,
	}
	if err := db.CreateCode(context.Background(), code); err != nil {
		t.Fatalf("CreateCode() error = %v", err)
	}
	if code.ID == "" {
		t.Error("CreateCode() did not set code.ID")
	}
}

func TestCreateCode_DuplicateValue(t *testing.T) {
	db := newTestDB(t)
	createTestCode(t, db, "SAMESAMESAME", 30)

	err := db.CreateCode(context.Background(), &model.VIPCode{Code: "SAMESAMESAME", DurationDays: 7})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateCode() error = %v, want ErrConflict", err)
	}
}

func TestGetCodeByValue(t *testing.T) {
	db := newTestDB(t)
	created := createTestCode(t, db, "LOOKUP123456", 15)

	got, err := db.GetCodeByValue(context.Background(), "LOOKUP123456")
	if err != nil {
		t.Fatalf("GetCodeByValue() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}
	if got.IsUsed {
		t.Error("fresh code reported as used")
	}
	if got.DurationDays != 15 {
		t.Errorf("DurationDays = %d, want 15", got.DurationDays)
	}
}

func TestGetCodeByValue_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetCodeByValue(context.Background(), "NEVERISSUED0")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetCodeByValue() error = %v, want ErrNotFound", err)
	}
}

func TestApplyRedemption(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "redeemer@example.com")
	code := createTestCode(t, db, "REDEEMME1234", 30)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	newExpiry := now.AddDate(0, 0, 30)

	if err := db.ApplyRedemption(context.Background(), user.ID, code.ID, newExpiry, now); err != nil {
		t.Fatalf("ApplyRedemption() error = %v", err)
	}

	// Code side: flag, redeemer, timestamp all set together.
	gotCode, err := db.GetCodeByValue(context.Background(), "REDEEMME1234")
	if err != nil {
		t.Fatalf("GetCodeByValue() error = %v", err)
	}
	if !gotCode.IsUsed {
		t.Error("code not marked used")
	}
	if gotCode.UsedBy == nil || *gotCode.UsedBy != user.ID {
		t.Errorf("UsedBy = %v, want %q", gotCode.UsedBy, user.ID)
	}
	if gotCode.UsedAt == nil || !gotCode.UsedAt.Equal(now) {
		t.Errorf("UsedAt = %v, want %v", gotCode.UsedAt, now)
	}

	// User side: tier label and expiry written in the same transaction.
	gotUser, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if gotUser.Tier != model.TierVIP {
		t.Errorf("Tier = %q, want %q", gotUser.Tier, model.TierVIP)
	}
	if gotUser.VIPExpiresAt == nil || !gotUser.VIPExpiresAt.Equal(newExpiry) {
		t.Errorf("VIPExpiresAt = %v, want %v", gotUser.VIPExpiresAt, newExpiry)
	}
}

func TestApplyRedemption_AlreadyUsed(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "first@example.com")
	other := createTestUser(t, db, "second@example.com")
	code := createTestCode(t, db, "ONCEONLY1234", 30)

	now := time.Now().UTC()
	if err := db.ApplyRedemption(context.Background(), user.ID, code.ID, now.AddDate(0, 0, 30), now); err != nil {
		t.Fatalf("first ApplyRedemption() error = %v", err)
	}

	err := db.ApplyRedemption(context.Background(), other.ID, code.ID, now.AddDate(0, 0, 30), now)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second ApplyRedemption() error = %v, want ErrConflict", err)
	}

	// The losing attempt must leave no trace on the other user.
	gotOther, err := db.GetUserByID(context.Background(), other.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if gotOther.VIPExpiresAt != nil {
		t.Errorf("losing user VIPExpiresAt = %v, want nil", gotOther.VIPExpiresAt)
	}
	if gotOther.Tier != model.TierFree {
		t.Errorf("losing user Tier = %q, want %q", gotOther.Tier, model.TierFree)
	}
}

func TestApplyRedemption_UnknownUserLeavesCodeUnused(t *testing.T) {
	db := newTestDB(t)
	code := createTestCode(t, db, "ORPHANED1234", 30)

	// used_by references users(id), so a nonexistent user must fail the
	// transaction without consuming the code.
	now := time.Now().UTC()
	err := db.ApplyRedemption(context.Background(), "no-such-user", code.ID, now.AddDate(0, 0, 30), now)
	if err == nil {
		t.Fatal("ApplyRedemption() should fail for an unknown user")
	}

	got, gerr := db.GetCodeByValue(context.Background(), "ORPHANED1234")
	if gerr != nil {
		t.Fatalf("GetCodeByValue() error = %v", gerr)
	}
	if got.IsUsed {
		t.Error("code marked used although the transaction failed")
	}
}

// TestApplyRedemption_Concurrent races many redemptions of one code and
// asserts exactly one wins. The conditional UPDATE is the only
// synchronization, so this is the property the whole engine rests on.
func TestApplyRedemption_Concurrent(t *testing.T) {
	db := newTestDB(t)
	code := createTestCode(t, db, "RACEDCODE123", 30)

	const workers = 16
	users := make([]*model.User, workers)
	for i := range users {
		users[i] = createTestUser(t, db, "racer"+string(rune('a'+i))+"@example.com")
	}

	now := time.Now().UTC()
	results := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = db.ApplyRedemption(context.Background(),
				users[i].ID, code.ID, now.AddDate(0, 0, 30), now)
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for i, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, apperror.ErrConflict):
			conflicts++
		default:
			t.Errorf("worker %d: unexpected error %v", i, err)
		}
	}
	if wins != 1 {
		t.Errorf("wins = %d, want exactly 1", wins)
	}
	if conflicts != workers-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, workers-1)
	}
}

func TestListCodes_JoinsRedeemerEmail(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "redeemer@example.com")
	used := createTestCode(t, db, "USEDCODE1234", 30)
	createTestCode(t, db, "FRESHCODE123", 30)

	now := time.Now().UTC()
	if err := db.ApplyRedemption(context.Background(), user.ID, used.ID, now.AddDate(0, 0, 30), now); err != nil {
		t.Fatalf("ApplyRedemption() error = %v", err)
	}

	codes, err := db.ListCodes(context.Background())
	if err != nil {
		t.Fatalf("ListCodes() error = %v", err)
	}
	if len(codes) != 2 {
		t.Fatalf("len(codes) = %d, want 2", len(codes))
	}

	for _, c := range codes {
		switch c.Code {
		case "USEDCODE1234":
			if c.UsedByEmail != "redeemer@example.com" {
				t.Errorf("UsedByEmail = %q, want redeemer@example.com", c.UsedByEmail)
			}
		case "FRESHCODE123":
			if c.UsedByEmail != "" {
				t.Errorf("unused code UsedByEmail = %q, want empty", c.UsedByEmail)
			}
		default:
			t.Errorf("unexpected code %q in listing", c.Code)
		}
	}
}
