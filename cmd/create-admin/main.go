// Command create-admin tạo tài khoản admin cho backoffice.
//
//	go run ./cmd/create-admin -username novia -display-name "La novia"
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/vnkhanh/wedding-rsvp/config"
	"github.com/vnkhanh/wedding-rsvp/models"
	"github.com/vnkhanh/wedding-rsvp/store"
	"github.com/vnkhanh/wedding-rsvp/utils"
)

// readPassword thay được trong test.
var readPassword = term.ReadPassword

func main() {
	username := flag.String("username", "", "admin username (required)")
	displayName := flag.String("display-name", "", "name shown in the backoffice")
	flag.Parse()

	if err := run(*username, *displayName, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(username, displayName string, in *os.File, out io.Writer) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("-username is required")
	}

	password, err := promptPassword(in, out)
	if err != nil {
		return err
	}
	if err := utils.ValidatePassword(password); err != nil {
		return err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	cfg, err := config.LoadDB()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	db, err := config.ConnectDB(cfg, logger)
	if err != nil {
		return err
	}
	st := store.NewGormStore(db, logger)
	defer st.Close()

	user := &models.AdminUser{Username: username, PasswordHash: hash, DisplayName: displayName}
	if err := st.CreateAdminUser(context.Background(), user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			return fmt.Errorf("username %q already exists", username)
		}
		return err
	}

	fmt.Fprintf(out, "admin %q created (id %s)\n", user.Username, user.ID)
	return nil
}

// promptPassword hỏi mật khẩu hai lần khi chạy trên terminal;
// nếu stdin là pipe thì đọc một dòng.
func promptPassword(in *os.File, out io.Writer) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(out, "Password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	fmt.Fprint(out, "Repeat password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
