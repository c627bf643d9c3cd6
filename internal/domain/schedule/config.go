package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config is the single mutable "current schedule" document. Replaced
// wholesale on update; the scheduler retires the old trigger before
// installing one for the new config.
type Config struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	CronExpression string `json:"cronExpression" yaml:"cronExpression"` // second minute hour day month weekday
	Timezone       string `json:"timezone" yaml:"timezone"`
}

var fieldPattern = regexp.MustCompile(`^(\*|\d+|\d+-\d+|\d+(,\d+)+|\*/\d+)$`)

// Parser accepts the full 6-field form (seconds first), the same form the
// scheduler installs triggers with.
var Parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCron checks a 6-field cron expression. Each field must be one of
// *, a number, a range a-b, a comma list, or a step */n; values are then
// bounds-checked by the cron parser.
func ValidateCron(expr string) error {
	fields := strings.Fields(strings.TrimSpace(expr))
	if len(fields) != 6 {
		return fmt.Errorf("expected 6 fields (second minute hour day month weekday), got %d", len(fields))
	}
	for i, f := range fields {
		if !fieldPattern.MatchString(f) {
			return fmt.Errorf("field %d %q is not *, a number, a range, a list or a step", i+1, f)
		}
	}
	if _, err := Parser.Parse(expr); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone, defaulting to the system zone.
func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Validate checks the whole document. Disabled configs are always valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := ValidateCron(c.CronExpression); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}
