package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ledgerMode keeps the contract readable by the owner only; the file holds
// generated credentials.
const ledgerMode = os.FileMode(0o600)

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// EnsureFile creates an empty ledger with owner-only permissions if none
// exists. It is a no-op when the file is already present.
func EnsureFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat contract file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create contract directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, ledgerMode)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("create contract file: %w", err)
	}
	return f.Close()
}

// readLedger parses the ledger into key/value pairs. A missing file yields
// an empty result. Malformed lines are skipped, never fatal.
func readLedger(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read contract file: %w", err)
	}

	var entries []Entry
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := parseLine(line)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Key: key, Value: value})
	}
	return entries, nil
}

// parseLine splits one ledger line into key and unquoted value. Blank
// lines, comments, and lines without a recognizable KEY= prefix report
// ok=false.
func parseLine(line string) (key, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	// Tolerate the "export KEY=..." form some operators hand-edit in.
	trimmed = strings.TrimPrefix(trimmed, "export ")

	eq := strings.Index(trimmed, "=")
	if eq <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(trimmed[:eq])
	if !keyPattern.MatchString(key) {
		return "", "", false
	}
	return key, unquote(trimmed[eq+1:]), true
}

// unquote strips a single level of single or double quoting and resolves
// \" and \\ escapes inside double quotes. Unquoted values are returned
// as-is, trimmed.
func unquote(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return raw[1 : len(raw)-1]
	}
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		inner := raw[1 : len(raw)-1]
		var b strings.Builder
		for i := 0; i < len(inner); i++ {
			if inner[i] == '\\' && i+1 < len(inner) && (inner[i+1] == '"' || inner[i+1] == '\\') {
				i++
			}
			b.WriteByte(inner[i])
		}
		return b.String()
	}
	return raw
}

// quote renders a value the way the ledger persists it: always
// double-quoted with embedded backslashes and quotes escaped, so the file
// round-trips through parseLine.
func quote(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	return `"` + value + `"`
}

// upsertLedger merges pairs into the ledger file. Lines whose key appears
// in pairs are replaced in place (first occurrence wins, later duplicates
// of the same key are dropped); unrelated lines are preserved verbatim;
// missing keys are appended in sorted order. The result is written through
// a temporary file and renamed over the original, then restored to
// owner-only permissions.
func upsertLedger(path string, pairs map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read contract file: %w", err)
	}

	seen := make(map[string]bool, len(pairs))
	var out []string

	if len(data) > 0 {
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		for _, line := range lines {
			key, _, ok := parseLine(line)
			if !ok {
				out = append(out, line)
				continue
			}
			if _, managed := pairs[key]; !managed {
				out = append(out, line)
				continue
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, key+"="+quote(pairs[key]))
		}
	}

	missing := make([]string, 0, len(pairs))
	for key := range pairs {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	for _, key := range missing {
		out = append(out, key+"="+quote(pairs[key]))
	}

	content := strings.Join(out, "\n")
	if content != "" {
		content += "\n"
	}
	return writeAtomic(path, []byte(content))
}

// writeAtomic writes data to a sibling temporary file and renames it over
// path, so a crash mid-write never leaves a truncated ledger behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp contract file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp contract file: %w", err)
	}
	if err := tmp.Chmod(ledgerMode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp contract file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp contract file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace contract file: %w", err)
	}
	return nil
}
