package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile("[^a-z0-9]+")

func Slugify(s string) string {
	s = strings.ToLower(s)
	s = unsafeChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SafeFileName slugifies the base name of an uploaded file and keeps its
// extension, e.g. "My Tasks (v2).CSV" -> "my-tasks-v2.csv".
func SafeFileName(name string) string {
	base := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(base))
	stem := Slugify(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = "upload"
	}
	return stem + ext
}
