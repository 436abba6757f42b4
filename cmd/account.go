package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type registerCmd struct {
	username string
	password string
}

func (*registerCmd) Name() string     { return "register" }
func (*registerCmd) Synopsis() string { return "create a new user and its portfolio" }
func (*registerCmd) Usage() string {
	return `fxh register -username <name> -password <password>

  Creates a new user. Its portfolio starts with a single wallet in the base
  currency holding the configured starting balance.
`
}

func (c *registerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "username", "", "name of the new user")
	f.StringVar(&c.password, "password", "", "password, at least 4 characters")
}

func (c *registerCmd) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	u, err := env.Accounts.Register(c.username, c.password)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "User %q registered with id %d.\n", u.Username, u.ID)
	return subcommands.ExitSuccess
}

type loginCmd struct {
	username string
	password string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "log in as a registered user" }
func (*loginCmd) Usage() string {
	return `fxh login -username <name> -password <password>

  Logs in. The following commands act on the portfolio of that user until
  'fxh logout'.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "username", "", "name of the user")
	f.StringVar(&c.password, "password", "", "password of the user")
}

func (c *loginCmd) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	u, err := env.Accounts.Login(c.username, c.password)
	if err != nil {
		return fail(err)
	}
	if err := env.Session.Login(u, env.Now()); err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "Logged in as %q.\n", u.Username)
	return subcommands.ExitSuccess
}

type logoutCmd struct{}

func (*logoutCmd) Name() string     { return "logout" }
func (*logoutCmd) Synopsis() string { return "log out" }
func (*logoutCmd) Usage() string {
	return `fxh logout
`
}

func (c *logoutCmd) SetFlags(f *flag.FlagSet) {}

func (c *logoutCmd) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if err := envOf(args).Session.Logout(); err != nil {
		return fail(err)
	}
	fmt.Fprintln(stdout, "Logged out.")
	return subcommands.ExitSuccess
}

type passwdCmd struct {
	old, new string
}

func (*passwdCmd) Name() string     { return "passwd" }
func (*passwdCmd) Synopsis() string { return "change the password of the logged user" }
func (*passwdCmd) Usage() string {
	return `fxh passwd -old <password> -new <password>
`
}

func (c *passwdCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.old, "old", "", "current password")
	f.StringVar(&c.new, "new", "", "new password, at least 4 characters")
}

func (c *passwdCmd) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	u, err := env.User()
	if err != nil {
		return fail(err)
	}
	if err := env.Accounts.ChangePassword(u.Username, c.old, c.new); err != nil {
		return fail(err)
	}
	fmt.Fprintln(stdout, "Password changed.")
	return subcommands.ExitSuccess
}
