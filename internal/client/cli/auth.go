package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/daybook/internal/client/client"
	"github.com/dmitrijs2005/daybook/internal/common"
)

// getSimpleText, getPassword, getMultiline and getConfirmation are
// indirections used to facilitate testing. They point to interactive input
// helpers and can be swapped in tests.
var (
	getSimpleText   = GetSimpleText
	getPassword     = GetPassword
	getMultiline    = GetMultiline
	getConfirmation = GetConfirmation
)

func (a *App) readCredentials() (string, string, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", "", err
	}
	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(email), string(password), nil
}

// Register prompts for an email and password and creates the account. The
// user is logged in afterwards.
func (a *App) Register(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}

	if err := a.authService.Register(ctx, email, password); err != nil {
		return err
	}

	a.setLoggedIn(email, true)
	a.setMode(ModeOnline)
	printlnFn("Success!")
	return nil
}

// Login prompts for credentials and authenticates against the server.
// There is no offline login: without the server nothing can be read.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}

	if err := a.authService.Login(ctx, email, password); err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		return err
	}

	a.setLoggedIn(email, true)
	a.setMode(ModeOnline)
	printlnFn("Logged in as", email)
	return nil
}

// Logout leaves the open entry keeping its draft, stops the change feed and
// forgets the tokens.
func (a *App) Logout(ctx context.Context) error {
	if a.editor != nil {
		if err := a.editor.Back(ctx); err != nil {
			return err
		}
	}
	a.stopWatch()

	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.setLoggedIn("", false)
	a.setListing("", nil)
	printlnFn("Logged out")
	return nil
}

// Profile prints the profile; "profile set" prompts for new values, keeping
// the current ones on empty input.
func (a *App) Profile(ctx context.Context, args []string) error {
	p, err := a.authService.Profile(ctx)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	if len(args) > 0 && args[0] == "set" {
		var name, locale string
		if p != nil {
			name, locale = p.DisplayName, p.Locale
		}
		if in, err := getSimpleText(a.reader, fmt.Sprintf("Display name [%s]", name), a.out); err != nil {
			return err
		} else if in != "" {
			name = in
		}
		if in, err := getSimpleText(a.reader, fmt.Sprintf("Locale [%s]", locale), a.out); err != nil {
			return err
		} else if in != "" {
			locale = in
		}

		if p, err = a.authService.UpdateProfile(ctx, name, locale); err != nil {
			return err
		}
	}

	if p == nil {
		printlnFn("No profile yet. Use 'profile set'.")
		return nil
	}
	printProfile(a.out, p)
	return nil
}

// Passwd changes the password after reauthenticating with the current one.
func (a *App) Passwd(ctx context.Context) error {
	current, err := getPassword(a.out, "Current password")
	if err != nil {
		return err
	}
	next, err := getPassword(a.out, "New password")
	if err != nil {
		return err
	}
	again, err := getPassword(a.out, "Repeat new password")
	if err != nil {
		return err
	}
	if !bytes.Equal(next, again) {
		return fmt.Errorf("%w: passwords do not match", common.ErrorValidation)
	}

	if err := a.authService.ChangePassword(ctx, string(current), string(next)); err != nil {
		return err
	}
	printlnFn("Password changed")
	return nil
}

// Email changes the login email after reauthenticating.
func (a *App) Email(ctx context.Context) error {
	newEmail, err := getSimpleText(a.reader, "New email", a.out)
	if err != nil {
		return err
	}
	current, err := getPassword(a.out, "Current password")
	if err != nil {
		return err
	}

	if err := a.authService.ChangeEmail(ctx, string(current), newEmail); err != nil {
		return err
	}
	a.setLoggedIn(newEmail, true)
	printlnFn("Email changed to", newEmail)
	return nil
}
