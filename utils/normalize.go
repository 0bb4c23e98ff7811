// utils/normalize.go
package utils

import (
	"strings"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// NormalizeTag produces the canonical form used for case-insensitive handle
// uniqueness: leading @ stripped, ascii-folded, case-folded.
// "@StreamerÑame" and "streamername" collide on purpose.
func NormalizeTag(tag string) string {
	t := strings.TrimSpace(tag)
	t = strings.TrimPrefix(t, "@")
	t = unidecode.Unidecode(t)
	return foldCaser.String(t)
}
