package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/etnz/fxhub"
	"github.com/etnz/fxhub/jsonfile"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func newGateway(t *testing.T) *Gateway {
	t.Helper()
	dir := t.TempDir()
	return New(filepath.Join(dir, "users.json"), filepath.Join(dir, "portfolios.json"))
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func balances(p *fxhub.Portfolio) map[string]string {
	m := make(map[string]string)
	for _, code := range p.Codes() {
		w, _ := p.Wallet(code)
		m[code] = w.Balance().String()
	}
	return m
}

func TestGateway_MissingFiles(t *testing.T) {
	g := newGateway(t)
	users, err := g.LoadUsers()
	if err != nil || len(users) != 0 {
		t.Errorf("LoadUsers() = %v, %v, want no users", users, err)
	}
	portfolios, err := g.LoadPortfolios()
	if err != nil || len(portfolios) != 0 {
		t.Errorf("LoadPortfolios() = %v, %v, want no portfolio", portfolios, err)
	}
}

func TestGateway_RoundTrip(t *testing.T) {
	g := newGateway(t)
	registered := time.Date(2025, time.January, 2, 10, 0, 0, 123456000, time.UTC)
	users := map[int]fxhub.User{
		2: {ID: 2, Username: "bob", HashedPassword: "h2", Salt: "s2", RegistrationDate: registered},
		1: {ID: 1, Username: "alice", HashedPassword: "h1", Salt: "s1", RegistrationDate: registered},
	}
	if err := g.SaveUsers(users); err != nil {
		t.Fatalf("SaveUsers() error = %v", err)
	}
	got, err := g.LoadUsers()
	if err != nil {
		t.Fatalf("LoadUsers() error = %v", err)
	}
	if diff := cmp.Diff(users, got); diff != "" {
		t.Errorf("LoadUsers() mismatch (-want +got):\n%s", diff)
	}

	raw, _ := os.ReadFile(g.UsersFile())
	if i, j := strings.Index(string(raw), `"alice"`), strings.Index(string(raw), `"bob"`); i < 0 || j < i {
		t.Errorf("users are not sorted by id:\n%s", raw)
	}

	p2 := fxhub.NewPortfolio(2)
	p2.AddWallet("USD", decimal.RequireFromString("1000"))
	p1 := fxhub.NewPortfolio(1)
	p1.AddWallet("USD", decimal.RequireFromString("500"))
	p1.AddWallet("BTC", decimal.RequireFromString("0.01"))
	if err := g.SavePortfolios([]*fxhub.Portfolio{p2, p1}); err != nil {
		t.Fatalf("SavePortfolios() error = %v", err)
	}
	portfolios, err := g.LoadPortfolios()
	if err != nil {
		t.Fatalf("LoadPortfolios() error = %v", err)
	}
	if len(portfolios) != 2 || portfolios[0].UserID() != 1 || portfolios[1].UserID() != 2 {
		t.Fatalf("LoadPortfolios() = %v, want users 1 and 2", portfolios)
	}
	want := map[string]string{"BTC": "0.01", "USD": "500"}
	if diff := cmp.Diff(want, balances(portfolios[0])); diff != "" {
		t.Errorf("portfolio 1 mismatch (-want +got):\n%s", diff)
	}

	raw, _ = os.ReadFile(g.PortfoliosFile())
	if !strings.Contains(string(raw), `"balance": 0.01`) {
		t.Errorf("balance is not a bare number:\n%s", raw)
	}
}

func TestGateway_LegacyFormats(t *testing.T) {
	g := newGateway(t)
	write(t, g.UsersFile(), `[
		{"user_id": 1, "username": "alice", "hashed_password": "h", "salt": "s", "registration_date": "2025-01-02T10:00:00.123456"},
		{"user_id": 2, "username": "bob", "hashed_password": "h", "salt": "s", "registration_date": "2025-01-02 10:00:00"}
	]`)
	write(t, g.PortfoliosFile(), `[{"user_id": 1, "wallets": {"usd": 1000, "BTC": {"currency_code": "BTC", "balance": "0.5"}}}]`)

	users, err := g.LoadUsers()
	if err != nil {
		t.Fatalf("LoadUsers() error = %v", err)
	}
	if want := time.Date(2025, time.January, 2, 10, 0, 0, 123456000, time.UTC); !users[1].RegistrationDate.Equal(want) {
		t.Errorf("registration date = %v, want %v", users[1].RegistrationDate, want)
	}
	if want := time.Date(2025, time.January, 2, 10, 0, 0, 0, time.UTC); !users[2].RegistrationDate.Equal(want) {
		t.Errorf("registration date = %v, want %v", users[2].RegistrationDate, want)
	}

	portfolios, err := g.LoadPortfolios()
	if err != nil {
		t.Fatalf("LoadPortfolios() error = %v", err)
	}
	want := map[string]string{"BTC": "0.5", "USD": "1000"}
	if diff := cmp.Diff(want, balances(portfolios[0])); diff != "" {
		t.Errorf("portfolio mismatch (-want +got):\n%s", diff)
	}
}

func TestGateway_LoadErrors(t *testing.T) {
	tests := []struct {
		name       string
		users      string
		portfolios string
	}{
		{name: "users not an array", users: `{"user_id": 1}`},
		{name: "invalid date", users: `[{"user_id": 1, "registration_date": "yesterday"}]`},
		{name: "portfolios not an array", portfolios: `{"1": {}}`},
		{name: "negative balance", portfolios: `[{"user_id": 1, "wallets": {"USD": -1}}]`},
		{name: "invalid code", portfolios: `[{"user_id": 1, "wallets": {"U1": 10}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateway(t)
			var err error
			if tt.users != "" {
				write(t, g.UsersFile(), tt.users)
				_, err = g.LoadUsers()
			} else {
				write(t, g.PortfoliosFile(), tt.portfolios)
				_, err = g.LoadPortfolios()
			}
			var perr *fxhub.PersistenceError
			if !errors.As(err, &perr) || perr.Op != "load" {
				t.Errorf("load error = %v, want a load *PersistenceError", err)
			}
		})
	}
}

func TestGateway_SaveFailureKeepsFile(t *testing.T) {
	g := newGateway(t)
	users := map[int]fxhub.User{1: {ID: 1, Username: "alice", RegistrationDate: time.Now()}}
	if err := g.SaveUsers(users); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(g.UsersFile())

	g.Writer = jsonfile.Writer{BeforeRename: func(string) error { return errors.New("killed") }}
	users[2] = fxhub.User{ID: 2, Username: "bob", RegistrationDate: time.Now()}
	err := g.SaveUsers(users)
	var perr *fxhub.PersistenceError
	if !errors.As(err, &perr) || perr.Op != "save" {
		t.Fatalf("SaveUsers() error = %v, want a save *PersistenceError", err)
	}
	after, _ := os.ReadFile(g.UsersFile())
	if string(before) != string(after) {
		t.Errorf("users file changed by a failed save")
	}
}
