package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/etnz/fxhub"
	"github.com/etnz/fxhub/jsonfile"
)

const sessionFile = "session.json"

// ErrNotLoggedIn is returned by commands requiring a logged user.
var ErrNotLoggedIn = errors.New("not logged in, run 'fxh login' first")

// Session is the logged user, persisted between two fxh invocations.
type Session struct {
	path string
}

type jsession struct {
	UserID   int       `json:"user_id"`
	Username string    `json:"username"`
	LoginAt  time.Time `json:"login_at"`
}

// NewSession returns the session stored in path.
func NewSession(path string) *Session { return &Session{path: path} }

// Login records u as the logged user.
func (s *Session) Login(u fxhub.User, now time.Time) error {
	return jsonfile.Write(s.path, jsession{UserID: u.ID, Username: u.Username, LoginAt: now.UTC()})
}

// Logout forgets the logged user. It is not an error if none is logged.
func (s *Session) Logout() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// UserID returns the id of the logged user.
func (s *Session) UserID() (int, error) {
	var j jsession
	if err := jsonfile.Read(s.path, &j); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrNotLoggedIn
		}
		return 0, fmt.Errorf("cannot read session: %w", err)
	}
	if j.UserID <= 0 {
		return 0, ErrNotLoggedIn
	}
	return j.UserID, nil
}

// User returns the logged user.
func (e *Env) User() (fxhub.User, error) {
	id, err := e.Session.UserID()
	if err != nil {
		return fxhub.User{}, err
	}
	u, err := e.Accounts.User(id)
	if errors.Is(err, fxhub.ErrUserNotFound) {
		return fxhub.User{}, ErrNotLoggedIn
	}
	return u, err
}
