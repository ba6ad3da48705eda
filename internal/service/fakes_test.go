package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/tmirzaev/signaldesk/internal/apperror"
	"github.com/tmirzaev/signaldesk/internal/auth"
	"github.com/tmirzaev/signaldesk/internal/model"
	"github.com/tmirzaev/signaldesk/internal/repository"
)

// In-memory fakes for the repository interfaces. Hand-written rather
// than generated so each test reads top to bottom without a mock DSL.
// All methods are mutex-guarded because the redemption tests hit them
// from many goroutines at once.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	byEmail map[string]*model.User

	getByIDErr error // non-nil simulates a storage failure
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byEmail[user.Email]; ok {
		return apperror.Conflict("user", user.Email)
	}
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	if user.Tier == "" {
		user.Tier = model.TierFree
	}
	copied := *user
	f.byID[user.ID] = &copied
	f.byEmail[user.Email] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) SetUserTier(ctx context.Context, id string, tier model.Tier) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.Tier = tier
	return nil
}

// addUser seeds a user directly, bypassing CreateUser's field resets.
func (f *fakeUserRepo) addUser(u *model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u.ID == "" {
		u.ID = xid.New().String()
	}
	copied := *u
	f.byID[u.ID] = &copied
	f.byEmail[u.Email] = &copied
}

type fakeCodeRepo struct {
	mu      sync.Mutex
	byValue map[string]*model.VIPCode
	users   *fakeUserRepo // redemption writes the user row too

	// conflictsLeft makes the next N ApplyRedemption calls fail with
	// ErrConflict without consuming the code, simulating a lost race
	// whose winner rolled back (or a serialization failure).
	conflictsLeft int
	applyCalls    int
}

func newFakeCodeRepo(users *fakeUserRepo) *fakeCodeRepo {
	return &fakeCodeRepo{
		byValue: make(map[string]*model.VIPCode),
		users:   users,
	}
}

func (f *fakeCodeRepo) CreateCode(ctx context.Context, code *model.VIPCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byValue[code.Code]; ok {
		return apperror.Conflict("vip code", code.Code)
	}
	code.ID = xid.New().String()
	code.CreatedAt = time.Now().UTC()
	copied := *code
	f.byValue[code.Code] = &copied
	return nil
}

func (f *fakeCodeRepo) GetCodeByValue(ctx context.Context, value string) (*model.VIPCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.byValue[value]
	if !ok {
		return nil, apperror.NotFound("vip code", value)
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCodeRepo) ListCodes(ctx context.Context) ([]model.VIPCodeWithRedeemer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.VIPCodeWithRedeemer
	for _, c := range f.byValue {
		out = append(out, model.VIPCodeWithRedeemer{VIPCode: *c})
	}
	return out, nil
}

func (f *fakeCodeRepo) ApplyRedemption(ctx context.Context, userID, codeID string, newExpiresAt, redeemedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.applyCalls++
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return apperror.Conflict("vip code", codeID)
	}

	var code *model.VIPCode
	for _, c := range f.byValue {
		if c.ID == codeID {
			code = c
			break
		}
	}
	if code == nil {
		return apperror.NotFound("vip code", codeID)
	}
	if code.IsUsed {
		return apperror.Conflict("vip code", codeID)
	}

	code.IsUsed = true
	code.UsedBy = &userID
	usedAt := redeemedAt
	code.UsedAt = &usedAt

	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	u, ok := f.users.byID[userID]
	if !ok {
		// mimic the rollback: undo the code consumption
		code.IsUsed = false
		code.UsedBy = nil
		code.UsedAt = nil
		return apperror.NotFound("user", userID)
	}
	u.Tier = model.TierVIP
	expiry := newExpiresAt
	u.VIPExpiresAt = &expiry
	return nil
}

// addCode seeds a code directly.
func (f *fakeCodeRepo) addCode(c *model.VIPCode) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c.ID == "" {
		c.ID = xid.New().String()
	}
	copied := *c
	f.byValue[c.Code] = &copied
}

type fakeSignalRepo struct {
	mu     sync.Mutex
	byID   map[string]*model.Signal
	listed []repository.SignalFilter // filters seen, for assertions
}

func newFakeSignalRepo() *fakeSignalRepo {
	return &fakeSignalRepo{byID: make(map[string]*model.Signal)}
}

func (f *fakeSignalRepo) CreateSignal(ctx context.Context, s *model.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s.ID = xid.New().String()
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	copied := *s
	f.byID[s.ID] = &copied
	return nil
}

func (f *fakeSignalRepo) GetSignalByID(ctx context.Context, id string) (*model.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("signal", id)
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSignalRepo) ListSignals(ctx context.Context, filter repository.SignalFilter) ([]model.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listed = append(f.listed, filter)
	var out []model.Signal
	for _, s := range f.byID {
		if filter.Type != "" && s.Type != filter.Type {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.PublishedOnly && s.PublishedAt == nil {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSignalRepo) UpdateSignal(ctx context.Context, s *model.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byID[s.ID]; !ok {
		return apperror.NotFound("signal", s.ID)
	}
	copied := *s
	f.byID[s.ID] = &copied
	return nil
}

func (f *fakeSignalRepo) DeleteSignal(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byID[id]; !ok {
		return apperror.NotFound("signal", id)
	}
	delete(f.byID, id)
	return nil
}

type fakeInvestmentRepo struct {
	mu     sync.Mutex
	byUser map[string][]model.Investment
}

func newFakeInvestmentRepo() *fakeInvestmentRepo {
	return &fakeInvestmentRepo{byUser: make(map[string][]model.Investment)}
}

func (f *fakeInvestmentRepo) CreateInvestment(ctx context.Context, inv *model.Investment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	inv.ID = xid.New().String()
	inv.CreatedAt = time.Now().UTC()
	if inv.StartDate.IsZero() {
		inv.StartDate = inv.CreatedAt
	}
	if inv.ProfitRate == 0 {
		inv.ProfitRate = model.DefaultProfitRate
	}
	if inv.Status == "" {
		inv.Status = model.InvestmentStatusPending
	}
	f.byUser[inv.UserID] = append(f.byUser[inv.UserID], *inv)
	return nil
}

func (f *fakeInvestmentRepo) ListInvestmentsByUser(ctx context.Context, userID string) ([]model.Investment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]model.Investment(nil), f.byUser[userID]...), nil
}

type fakeSettingsRepo struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{values: make(map[string]string)}
}

func (f *fakeSettingsRepo) GetSetting(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.values[key]
	if !ok {
		return "", apperror.NotFound("setting", key)
	}
	return v, nil
}

func (f *fakeSettingsRepo) SetSetting(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[key] = value
	return nil
}

func (f *fakeSettingsRepo) AllSettings(ctx context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out, nil
}

// newTestTokenService returns a TokenService with a throwaway secret.
func newTestTokenService(t *testing.T) *auth.TokenService {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}
