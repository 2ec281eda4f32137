package topicmgr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const maxNameLength = 100

var (
	// lowercase dot-separated segments, e.g. chat.private
	namePattern   = regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)*$`)
	modulePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	frameworkPrefixes = []string{"ws.", "presence.", "server."}
)

// validate reports every problem with t at once.
func validate(t Topic) error {
	var errs []error

	switch {
	case t.name == "":
		errs = append(errs, errors.New("name is empty"))
	case len(t.name) > maxNameLength:
		errs = append(errs, fmt.Errorf("name longer than %d characters", maxNameLength))
	case !namePattern.MatchString(t.name):
		errs = append(errs, errors.New("name must be lowercase dot-separated segments"))
	}
	if strings.TrimSpace(t.description) == "" {
		errs = append(errs, errors.New("description is empty"))
	}

	switch t.scope {
	case ScopeFramework:
		if !hasAnyPrefix(t.name, frameworkPrefixes) {
			errs = append(errs, fmt.Errorf("framework topic must start with one of %v", frameworkPrefixes))
		}
	case ScopeModule:
		if !modulePattern.MatchString(t.module) {
			errs = append(errs, fmt.Errorf("invalid module name %q", t.module))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown scope %q", t.scope))
	}
	return errors.Join(errs...)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
