// Package credentials loads teacher login credentials and verifies them.
// The store is loaded once at startup and read-only thereafter.
package credentials

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"os"
)

// Teacher is one credential entry in the teachers file.
type Teacher struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// file is the on-disk document shape: {"teachers": [...]}.
type file struct {
	Teachers []Teacher `json:"teachers"`
}

// Store holds the teacher username to password mapping.
type Store struct {
	passwords map[string]string
}

// Load reads and parses the teachers JSON file. Any read or parse failure is
// returned to the caller, which is expected to treat it as fatal.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading teachers file: %w", err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing teachers file %s: %w", path, err)
	}
	if len(f.Teachers) == 0 {
		return nil, fmt.Errorf("teachers file %s defines no teachers", path)
	}

	passwords := make(map[string]string, len(f.Teachers))
	for _, t := range f.Teachers {
		if t.Username == "" {
			return nil, fmt.Errorf("teachers file %s contains an entry with no username", path)
		}
		passwords[t.Username] = t.Password
	}
	return &Store{passwords: passwords}, nil
}

// NewStore builds a Store from an in-memory mapping. Intended for tests.
func NewStore(passwords map[string]string) *Store {
	copied := make(map[string]string, len(passwords))
	for k, v := range passwords {
		copied[k] = v
	}
	return &Store{passwords: copied}
}

// Verify reports whether username/password is a valid credential pair.
// Every stored entry is compared in constant time so the result's timing
// does not reveal which usernames exist.
func (s *Store) Verify(username, password string) bool {
	ok := false
	for u, p := range s.passwords {
		userMatch := subtle.ConstantTimeCompare([]byte(u), []byte(username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(p), []byte(password)) == 1
		if userMatch && passMatch {
			ok = true
		}
	}
	return ok
}

// Len returns the number of loaded credentials.
func (s *Store) Len() int {
	return len(s.passwords)
}
