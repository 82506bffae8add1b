package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// Access tokens are HS256 signed, 32 bytes match the hash size
const defaultSecretKeyBytesLen = 32

func main() {
	fs := pflag.NewFlagSet("gensecret", pflag.ExitOnError)
	length := fs.IntP("bytes", "n", defaultSecretKeyBytesLen, "Secret key length in bytes")
	_ = fs.Parse(os.Args[1:])

	secret, err := generate(*length)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(secret)
}

func generate(n int) (string, error) {
	if n < defaultSecretKeyBytesLen {
		return "", fmt.Errorf("secret key must be at least %d bytes", defaultSecretKeyBytesLen)
	}

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
