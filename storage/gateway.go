// Package storage persists users and portfolios as flat JSON files.
//
// Each file holds a whole collection and is rewritten atomically on every
// save.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/etnz/fxhub"
	"github.com/etnz/fxhub/jsonfile"
	"github.com/shopspring/decimal"
)

// Gateway implements fxhub.Store on top of two JSON files.
type Gateway struct {
	usersFile      string
	portfoliosFile string

	Writer jsonfile.Writer
}

// New returns a gateway reading and writing the given files.
func New(usersFile, portfoliosFile string) *Gateway {
	return &Gateway{usersFile: usersFile, portfoliosFile: portfoliosFile}
}

func (g *Gateway) UsersFile() string      { return g.usersFile }
func (g *Gateway) PortfoliosFile() string { return g.portfoliosFile }

type juser struct {
	UserID           int    `json:"user_id"`
	Username         string `json:"username"`
	HashedPassword   string `json:"hashed_password"`
	Salt             string `json:"salt"`
	RegistrationDate string `json:"registration_date"`
}

type jwallet struct {
	CurrencyCode string          `json:"currency_code"`
	Balance      jsonfile.Number `json:"balance"`
}

// UnmarshalJSON accepts either a wallet object or a bare balance.
func (w *jwallet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		return json.Unmarshal(data, &w.Balance.Decimal)
	}
	var v struct {
		CurrencyCode string          `json:"currency_code"`
		Balance      decimal.Decimal `json:"balance"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	w.CurrencyCode, w.Balance = v.CurrencyCode, jsonfile.N(v.Balance)
	return nil
}

type jportfolio struct {
	UserID  int                `json:"user_id"`
	Wallets map[string]jwallet `json:"wallets"`
}

// registration dates written by older tools have no zone, and are UTC.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid registration date %q", s)
}

// LoadUsers returns all the users by id. A missing file has no users.
func (g *Gateway) LoadUsers() (map[int]fxhub.User, error) {
	var list []juser
	if err := jsonfile.Read(g.usersFile, &list); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[int]fxhub.User), nil
		}
		return nil, &fxhub.PersistenceError{Op: "load", Path: g.usersFile, Err: err}
	}
	users := make(map[int]fxhub.User, len(list))
	for _, j := range list {
		date, err := parseDate(j.RegistrationDate)
		if err != nil {
			return nil, &fxhub.PersistenceError{Op: "load", Path: g.usersFile, Err: err}
		}
		users[j.UserID] = fxhub.User{
			ID:               j.UserID,
			Username:         j.Username,
			HashedPassword:   j.HashedPassword,
			Salt:             j.Salt,
			RegistrationDate: date,
		}
	}
	return users, nil
}

// SaveUsers overwrites the users file with users, sorted by id.
func (g *Gateway) SaveUsers(users map[int]fxhub.User) error {
	list := make([]juser, 0, len(users))
	for _, id := range slices.Sorted(maps.Keys(users)) {
		u := users[id]
		list = append(list, juser{
			UserID:           u.ID,
			Username:         u.Username,
			HashedPassword:   u.HashedPassword,
			Salt:             u.Salt,
			RegistrationDate: u.RegistrationDate.UTC().Format(time.RFC3339Nano),
		})
	}
	if err := g.Writer.Write(g.usersFile, list); err != nil {
		return &fxhub.PersistenceError{Op: "save", Path: g.usersFile, Err: err}
	}
	return nil
}

// LoadPortfolios returns all the portfolios. A missing file has no portfolio.
func (g *Gateway) LoadPortfolios() ([]*fxhub.Portfolio, error) {
	var list []jportfolio
	if err := jsonfile.Read(g.portfoliosFile, &list); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &fxhub.PersistenceError{Op: "load", Path: g.portfoliosFile, Err: err}
	}
	portfolios := make([]*fxhub.Portfolio, 0, len(list))
	for _, j := range list {
		p := fxhub.NewPortfolio(j.UserID)
		for _, key := range slices.Sorted(maps.Keys(j.Wallets)) {
			w := j.Wallets[key]
			code := w.CurrencyCode
			if code == "" {
				code = key
			}
			if _, err := p.AddWallet(strings.ToUpper(code), w.Balance.Decimal); err != nil {
				return nil, &fxhub.PersistenceError{Op: "load", Path: g.portfoliosFile, Err: fmt.Errorf("user %d: %w", j.UserID, err)}
			}
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, nil
}

// SavePortfolios overwrites the portfolios file, sorted by user id.
func (g *Gateway) SavePortfolios(portfolios []*fxhub.Portfolio) error {
	list := make([]jportfolio, 0, len(portfolios))
	for _, p := range portfolios {
		j := jportfolio{UserID: p.UserID(), Wallets: make(map[string]jwallet)}
		for _, code := range p.Codes() {
			w, _ := p.Wallet(code)
			j.Wallets[code] = jwallet{CurrencyCode: code, Balance: jsonfile.N(w.Balance())}
		}
		list = append(list, j)
	}
	slices.SortFunc(list, func(a, b jportfolio) int { return a.UserID - b.UserID })
	if err := g.Writer.Write(g.portfoliosFile, list); err != nil {
		return &fxhub.PersistenceError{Op: "save", Path: g.portfoliosFile, Err: err}
	}
	return nil
}
