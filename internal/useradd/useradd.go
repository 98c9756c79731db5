// Package useradd implements the operator command that creates a user
// directly in the store, prompting for the password without echo.
package useradd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/server/models"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var ErrPasswordMismatch = errors.New("passwords do not match")

// Registrar creates users.
type Registrar interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
}

// GetSimpleText prints a prompt to w and reads a single trimmed line from
// reader. A partial line followed by EOF is returned as is.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword reads a password from the terminal without echo.
// The caller wipes the returned slice.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// Run asks for the user name when it is empty, then for the password twice,
// and creates the user through r.
func Run(ctx context.Context, r Registrar, reader *bufio.Reader, w io.Writer, username string) error {
	var err error
	if username == "" {
		username, err = GetSimpleText(reader, "Enter user name", w)
		if err != nil {
			return err
		}
	}

	password, err := GetPassword(w, "Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := GetPassword(w, "Repeat password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		return ErrPasswordMismatch
	}

	u, err := r.Register(ctx, username, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Created user %s (id %d)\n", u.UserName, u.ID)
	return nil
}
