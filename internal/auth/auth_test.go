package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"colorx/internal/portfolio"
	"colorx/internal/store"
)

func newTestService() (*Service, *store.MemoryStore) {
	users := store.NewMemory()
	return NewService(users, nil).WithCost(bcrypt.MinCost), users
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	if err := svc.Signup(ctx, "alice", "pw"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	rec, err := svc.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Portfolio != nil {
		t.Fatal("fresh user should have a null portfolio")
	}
	if len(rec.TradeHistory) != 0 {
		t.Fatalf("fresh user should have empty history, got %d", len(rec.TradeHistory))
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	if err := svc.Signup(ctx, "alice", "pw"); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if err := svc.Signup(ctx, "alice", "pw2"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestSignupEmptyFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	for _, tc := range []struct{ user, pass string }{
		{"", "pw"},
		{"alice", ""},
		{"   ", "pw"},
	} {
		if err := svc.Signup(ctx, tc.user, tc.pass); !errors.Is(err, ErrEmptyCredentials) {
			t.Fatalf("user=%q pass=%q: expected ErrEmptyCredentials, got %v", tc.user, tc.pass, err)
		}
	}
}

func TestLoginUnknownUserVsWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	if err := svc.Signup(ctx, "alice", "pw"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(ctx, "bob", "pw"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
}

func TestSaveProgressKeepsDigest(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService()
	if err := svc.Signup(ctx, "alice", "pw"); err != nil {
		t.Fatal(err)
	}
	before, _ := users.Load(ctx)
	digest := before["alice"].Password

	pf := portfolio.New(750, []string{"Red"})
	history := []portfolio.TradeRecord{{Action: portfolio.ActionBuy, Color: "Red", Quantity: 1, Price: 100, Cash: 900}}
	if err := svc.SaveProgress(ctx, "alice", pf, history); err != nil {
		t.Fatalf("save progress: %v", err)
	}

	after, _ := users.Load(ctx)
	rec := after["alice"]
	if rec.Password != digest {
		t.Fatal("password digest must survive progress writes")
	}
	if rec.Portfolio == nil || rec.Portfolio.Cash != 750 {
		t.Fatalf("portfolio not persisted: %+v", rec.Portfolio)
	}
	if len(rec.TradeHistory) != 1 {
		t.Fatalf("history not persisted: %+v", rec.TradeHistory)
	}
}

func TestSaveProgressMissingUserIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService()
	if err := svc.SaveProgress(ctx, "ghost", portfolio.New(100, nil), nil); err != nil {
		t.Fatalf("missing user should not error: %v", err)
	}
	all, _ := users.Load(ctx)
	if len(all) != 0 {
		t.Fatalf("no record should be created: %+v", all)
	}
}
