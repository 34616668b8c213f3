package catalog

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// ErrInvalidCronExpression is returned for schedule triggers whose cron expression does not parse.
var ErrInvalidCronExpression = errors.New("invalid cron expression")

// ValidateCron parses a standard five-field cron expression.
func ValidateCron(expression string) error {
	if _, err := cron.ParseStandard(expression); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidCronExpression, expression, err)
	}

	return nil
}
