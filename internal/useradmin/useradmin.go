// Package useradmin implements the command that adds accounts directly to
// the store, for bootstrapping and for recovering a lost admin password.
package useradmin

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/cvewatch/internal/common"
	"github.com/dmitrijs2005/cvewatch/internal/flagx"
	"github.com/dmitrijs2005/cvewatch/internal/logging"
	"github.com/dmitrijs2005/cvewatch/internal/server/config"
	"github.com/dmitrijs2005/cvewatch/internal/server/services"
	"github.com/dmitrijs2005/cvewatch/internal/server/storage"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var ErrPasswordMismatch = errors.New("passwords do not match")

type Options struct {
	Username string
	Admin    bool
}

// ParseArgs reads -u <username> and -admin[=true|false]. Other flags are left
// to the server config loader.
func ParseArgs(args []string) (Options, error) {
	var o Options
	fs := flag.NewFlagSet("useradmin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.Username, "u", "", "user name")
	fs.BoolVar(&o.Admin, "admin", false, "grant the admin role")
	if err := fs.Parse(flagx.FilterArgs(args, "-u", "-admin")); err != nil {
		return o, err
	}
	o.Username = strings.TrimSpace(o.Username)
	if o.Username == "" {
		return o, common.ErrorInvalidLogin
	}
	return o, nil
}

// GetPassword prompts twice on w and reads without echo.
// The returned byte slice should be wiped by the caller.
func GetPassword(w io.Writer) ([]byte, error) {
	fd := int(os.Stdin.Fd())

	fmt.Fprint(w, "Enter password: ")
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}

	fmt.Fprint(w, "Repeat password: ")
	again, err := readPassword(fd)
	fmt.Fprintln(w)
	defer common.WipeByteArray(again)
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}

	if !bytes.Equal(pw, again) {
		common.WipeByteArray(pw)
		return nil, ErrPasswordMismatch
	}
	return pw, nil
}

// Run creates the account described by o in the store named by cfg.
func Run(ctx context.Context, cfg *config.Config, o Options, w io.Writer) error {
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	st, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	pw, err := GetPassword(w)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	us := services.NewUserService(st.DB, st.Repos, cfg)
	u, err := us.Register(ctx, o.Username, string(pw), o.Admin)
	if err != nil {
		return err
	}

	role := "user"
	if u.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(w, "Created %s %q\n", role, u.UserName)
	return nil
}
