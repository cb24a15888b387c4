package template

import (
	"fmt"
	"sort"
	"strings"
)

// NotFoundError reports a template name that is not registered. It
// carries a sample of known names so a typo is diagnosable from the
// message alone.
type NotFoundError struct {
	Name  string
	Known []string
}

const sampleSize = 5

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("template not found: '%s'", e.Name)
	if len(e.Known) == 0 {
		return msg
	}
	known := append([]string{}, e.Known...)
	sort.Strings(known)
	sample := known
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	msg += fmt.Sprintf(". Available templates: %s", strings.Join(sample, ", "))
	if len(known) > sampleSize {
		msg += fmt.Sprintf(" ... (%d total)", len(known))
	}
	return msg
}
