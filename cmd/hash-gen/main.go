// Command hash-gen prints a bcrypt hash usable as AUTH_PASSWORD_HASH.
//
//	hash-gen [-cost 12] <password>
//
// Without an argument the password is read from AUTH_PASSWORD.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"user-directory.backend/pkg/crypto"
)

var (
	stdout         io.Writer = os.Stdout
	generateHashFn           = crypto.HashPasswordWithCost
	fatalfFn                 = log.Fatalf
)

var errNoPassword = errors.New("password argument or AUTH_PASSWORD is required")

func resolvePassword(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if pw := os.Getenv("AUTH_PASSWORD"); pw != "" {
		return pw, nil
	}
	return "", errNoPassword
}

func run(args []string) error {
	flags := flag.NewFlagSet("hash-gen", flag.ContinueOnError)
	flags.SetOutput(stdout)
	cost := flags.Int("cost", crypto.DefaultCost, "bcrypt cost")
	if err := flags.Parse(args); err != nil {
		return err
	}

	password, err := resolvePassword(flags.Args())
	if err != nil {
		return err
	}

	hash, err := generateHashFn(password, *cost)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(stdout, "AUTH_PASSWORD_HASH=%s\n", hash)
	return err
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fatalfFn("Failed to hash password: %v", err)
	}
}
