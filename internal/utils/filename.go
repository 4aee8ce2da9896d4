package utils

import (
	"crypto/rand"
	"fmt"
	"path"
	"strings"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// SanitizeFilename keeps only the base name of an uploaded file and replaces
// characters that are unsafe in storage keys.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}

// RandomSuffix returns n random alphanumeric characters.
func RandomSuffix(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(buf), nil
}

// AvailableName returns p if exists reports it free, otherwise p with a
// "_<7 random chars>" suffix inserted before the extension.
func AvailableName(p string, exists func(string) (bool, error)) (string, error) {
	dir, file := path.Split(p)
	ext := path.Ext(file)
	stem := strings.TrimSuffix(file, ext)

	candidate := p
	for attempt := 0; attempt < 100; attempt++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		suffix, err := RandomSuffix(7)
		if err != nil {
			return "", err
		}
		candidate = dir + stem + "_" + suffix + ext
	}
	return "", fmt.Errorf("no available name for %s", p)
}
