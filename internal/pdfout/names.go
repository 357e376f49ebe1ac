package pdfout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxNameLength bounds sanitized name components, in runes.
const DefaultMaxNameLength = 100

// FallbackName replaces names that sanitize to nothing.
const FallbackName = "sem_nome"

var nameReplacer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_", `\`, "_",
	"|", "_", "?", "_", "*", "_", "\n", "_", "\r", "_", "\t", "_",
)

// SanitizeName makes s safe as a path component: characters invalid on common
// filesystems become "_", space runs collapse, and the result is cut to
// maxLen runes (DefaultMaxNameLength when maxLen <= 0).
//
//	SanitizeName("Ana / Silva", 0) // "Ana _ Silva"
func SanitizeName(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLength
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return FallbackName
	}

	s = nameReplacer.Replace(s)
	s = strings.Join(strings.Fields(s), " ")

	if r := []rune(s); len(r) > maxLen {
		s = strings.TrimSpace(string(r[:maxLen]))
	}
	if s == "" || s == "." || s == ".." {
		return FallbackName
	}
	return s
}

// TargetPath returns <outDir>/<cc>/<cc>_<name>.pdf with both components
// sanitized.
func TargetPath(outDir, costCenter, name string, maxLen int) string {
	cc := SanitizeName(costCenter, maxLen)
	n := SanitizeName(name, maxLen)
	return filepath.Join(outDir, cc, cc+"_"+n+".pdf")
}

// NextFreePath returns path if nothing exists there, otherwise the first of
// <base>_1<ext>, <base>_2<ext>, ... that is free.
func NextFreePath(path string) (string, error) {
	free, err := isFree(path)
	if err != nil || free {
		return path, err
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		free, err := isFree(candidate)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
}

func isFree(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", path, err)
}
