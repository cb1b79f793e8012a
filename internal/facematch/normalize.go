package facematch

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// FilenameToken makes a roll number or a name safe for a sample filename of
// the form {rollNo}_{name}_{index}.jpg. The backend splits on "_" and ".",
// so those and path or shell reserved characters become "-". Whitespace runs
// collapse to one space so the name matches the one sent as a form field.
func FilenameToken(s string) string {
	fields := strings.Fields(RemoveDiacritics(s))
	for i, f := range fields {
		fields[i] = strings.Trim(reservedRuns(f), "-")
	}
	fields = slices.DeleteFunc(fields, func(f string) bool { return f == "" })
	return strings.Join(fields, " ")
}

// reservedRuns replaces each run of reserved characters with one "-".
func reservedRuns(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range s {
		if strings.ContainsRune(`_./\:*?"<>|`, r) {
			if !dash {
				b.WriteByte('-')
				dash = true
			}
			continue
		}
		b.WriteRune(r)
		dash = false
	}
	return b.String()
}
