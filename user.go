package fxhub

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	nanoid "github.com/jaevor/go-nanoid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/argon2"
)

// MinPasswordLength is the minimum number of characters of a password.
const MinPasswordLength = 4

const saltLength = 16

// User is a registered user. Users are never deleted.
type User struct {
	ID               int
	Username         string
	HashedPassword   string
	Salt             string
	RegistrationDate time.Time
}

// HashPassword returns the hex encoded hash of password salted with salt.
func HashPassword(password, salt string) string {
	key := argon2.IDKey([]byte(password), []byte(salt), 1, 64*1024, 2, 32)
	return hex.EncodeToString(key)
}

// NewSalt returns a random salt.
func NewSalt() (string, error) {
	gen, err := nanoid.Standard(saltLength)
	if err != nil {
		return "", fmt.Errorf("cannot create salt generator: %w", err)
	}
	return gen(), nil
}

// VerifyPassword reports whether password matches the user's hashed password.
func (u User) VerifyPassword(password string) bool {
	if len(password) < MinPasswordLength {
		return false
	}
	h := HashPassword(password, u.Salt)
	return subtle.ConstantTimeCompare([]byte(h), []byte(u.HashedPassword)) == 1
}

// ChangePassword replaces the user's password, keeping the salt.
func (u *User) ChangePassword(password string) error {
	if len(password) < MinPasswordLength {
		return invalidf("password must have at least %d characters", MinPasswordLength)
	}
	u.HashedPassword = HashPassword(password, u.Salt)
	return nil
}

// normalizeUsername trims the username and rejects empty ones.
func normalizeUsername(username string) (string, error) {
	u := strings.TrimSpace(username)
	if u == "" {
		return "", invalidf("username must not be empty")
	}
	return u, nil
}

// Store persists users and portfolios as whole collections.
type Store interface {
	LoadUsers() (map[int]User, error)
	SaveUsers(users map[int]User) error
	LoadPortfolios() ([]*Portfolio, error)
	SavePortfolios(portfolios []*Portfolio) error
}

// Accounts manages the user lifecycle: registration, login and password changes.
type Accounts struct {
	store           Store
	base            string
	startingBalance decimal.Decimal
	now             func() time.Time
}

// NewAccounts returns the account manager. New users receive a portfolio with
// a base currency wallet holding startingBalance.
func NewAccounts(store Store, base string, startingBalance decimal.Decimal) *Accounts {
	return &Accounts{store: store, base: strings.ToUpper(base), startingBalance: startingBalance, now: time.Now}
}

// WithClock sets the clock stamping registration dates.
func (a *Accounts) WithClock(now func() time.Time) *Accounts {
	a.now = now
	return a
}

// Register creates a new user and its initial portfolio.
func (a *Accounts) Register(username, password string) (User, error) {
	name, err := normalizeUsername(username)
	if err != nil {
		return User{}, err
	}
	if len(password) < MinPasswordLength {
		return User{}, invalidf("password must have at least %d characters", MinPasswordLength)
	}

	users, err := a.store.LoadUsers()
	if err != nil {
		return User{}, err
	}
	if users == nil {
		users = make(map[int]User)
	}
	id := 1
	for _, u := range users {
		if u.Username == name {
			return User{}, fmt.Errorf("%w: %q", ErrUsernameTaken, name)
		}
		id = max(id, u.ID+1)
	}

	salt, err := NewSalt()
	if err != nil {
		return User{}, err
	}
	user := User{
		ID:               id,
		Username:         name,
		HashedPassword:   HashPassword(password, salt),
		Salt:             salt,
		RegistrationDate: a.now(),
	}
	users[id] = user

	portfolios, err := a.store.LoadPortfolios()
	if err != nil {
		return User{}, err
	}
	p := NewPortfolio(id)
	if _, err := p.AddWallet(a.base, a.startingBalance); err != nil {
		return User{}, err
	}
	portfolios = replacePortfolio(portfolios, p)

	// A portfolio without a user is overwritten by the next registration, a
	// user without a portfolio could never trade.
	if err := a.store.SavePortfolios(portfolios); err != nil {
		return User{}, err
	}
	if err := a.store.SaveUsers(users); err != nil {
		return User{}, err
	}
	log.Printf("register-user id=%d username=%q", id, name)
	return user, nil
}

// replacePortfolio replaces the portfolio of the same user in list, or appends p.
func replacePortfolio(list []*Portfolio, p *Portfolio) []*Portfolio {
	for i, q := range list {
		if q.UserID() == p.UserID() {
			list[i] = p
			return list
		}
	}
	return append(list, p)
}

// Login returns the user matching username and password.
func (a *Accounts) Login(username, password string) (User, error) {
	u, err := a.Find(username)
	if err != nil {
		return User{}, err
	}
	if !u.VerifyPassword(password) {
		return User{}, ErrWrongPassword
	}
	return u, nil
}

// Find returns the user by username.
func (a *Accounts) Find(username string) (User, error) {
	name, err := normalizeUsername(username)
	if err != nil {
		return User{}, err
	}
	users, err := a.store.LoadUsers()
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.Username == name {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("%w: %q", ErrUserNotFound, name)
}

// User returns the user by id.
func (a *Accounts) User(id int) (User, error) {
	users, err := a.store.LoadUsers()
	if err != nil {
		return User{}, err
	}
	u, ok := users[id]
	if !ok {
		return User{}, fmt.Errorf("%w: id=%d", ErrUserNotFound, id)
	}
	return u, nil
}

// ChangePassword replaces the password of the user after checking the old one.
func (a *Accounts) ChangePassword(username, oldPassword, newPassword string) error {
	u, err := a.Login(username, oldPassword)
	if err != nil {
		return err
	}
	if err := u.ChangePassword(newPassword); err != nil {
		return err
	}
	users, err := a.store.LoadUsers()
	if err != nil {
		return err
	}
	users[u.ID] = u
	return a.store.SaveUsers(users)
}
