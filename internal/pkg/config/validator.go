package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateCronSchedule accepts five-field cron expressions and descriptors such as "@daily".
func ValidateCronSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("cron schedule cannot be empty")
	}
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// ValidateDuration requires min <= d <= max.
func ValidateDuration(d, minimum, maximum time.Duration) error {
	if d < minimum || d > maximum {
		return fmt.Errorf("duration %v must be between %v and %v", d, minimum, maximum)
	}
	return nil
}

// ValidatePositiveDuration requires d > 0.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}

// ValidateIntRange requires min <= v <= max.
func ValidateIntRange(v, minimum, maximum int) error {
	if v < minimum || v > maximum {
		return fmt.Errorf("value %d must be between %d and %d", v, minimum, maximum)
	}
	return nil
}

// ValidatePort accepts unprivileged TCP ports.
func ValidatePort(port int) error {
	return ValidateIntRange(port, 1024, 65535)
}
