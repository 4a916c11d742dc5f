package service

import (
	"fmt"

	"github.com/phrazzld/taskwire-api/internal/domain"
)

// Service-level errors layered on the domain sentinels so callers can use
// errors.Is against either.
var (
	// ErrTaskEditLocked is returned when the overdue edit lock is enabled and
	// an update targets a task already in OVERDUE status.
	ErrTaskEditLocked = fmt.Errorf("%w: task is overdue and locked for editing", domain.ErrForbidden)
)
