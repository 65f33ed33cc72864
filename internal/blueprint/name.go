package blueprint

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrInvalidName = errors.New("invalid blueprint name")
	ErrNameTaken   = errors.New("blueprint name already taken")
)

// Names double as file names, so only letters, digits and underscores.
var validNameRegex = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)

func CouldBeValidName(name string) bool {
	return validNameRegex.MatchString(name)
}

// IsValidName checks name for use as a new or renamed template name.
func IsValidName(name string, names Finder) error {
	if !CouldBeValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if names != nil && names.Find(name) != nil {
		return fmt.Errorf("%w: %q", ErrNameTaken, name)
	}
	return nil
}

// DefaultName is the base name used when nothing better is known.
func DefaultName() string { return tr(msgDefaultName) }

// UniqueName appends the first numeric suffix, counting from 1, that names
// does not know yet.
func UniqueName(base string, names Finder) string {
	i := 1
	for names != nil && names.Find(fmt.Sprintf("%s_%d", base, i)) != nil {
		i++
	}
	return fmt.Sprintf("%s_%d", base, i)
}

func sanitizeName(s string) string {
	return strings.Join(strings.Fields(s), "_")
}
