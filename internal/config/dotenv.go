package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// loadDotEnv loads KEY=VALUE pairs from a dotenv file into the process
// environment and returns how many variables it set. A missing file is not
// an error.
//
// Rules:
//   - Empty lines and lines starting with # are ignored.
//   - "export KEY=VALUE" is supported.
//   - Quoted values keep everything between the quotes; unquoted values drop
//     a trailing " # comment".
//   - Existing environment variables are not overwritten.
func loadDotEnv(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	set := 0
	lineNo := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if k == "" || strings.ContainsAny(k, " \t") {
			return set, fmt.Errorf("%s:%d: invalid key %q", path, lineNo, k)
		}

		if _, exists := os.LookupEnv(k); exists && os.Getenv(k) != "" {
			continue
		}
		if err := os.Setenv(k, parseDotEnvValue(v)); err != nil {
			return set, fmt.Errorf("set %s: %w", k, err)
		}
		set++
	}
	if err := sc.Err(); err != nil {
		return set, err
	}
	return set, nil
}

func parseDotEnvValue(raw string) string {
	v := strings.TrimSpace(raw)
	if len(v) >= 2 {
		if q := v[0]; (q == '"' || q == '\'') && v[len(v)-1] == q {
			return v[1 : len(v)-1]
		}
	}
	if i := strings.Index(v, " #"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return v
}
