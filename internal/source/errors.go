package source

import (
	"fmt"

	"github.com/heartmarshall/eecc-crawler/internal/domain"
)

// MissingResourceError reports that the landing page loaded but the
// configured selector located no usable link.
type MissingResourceError struct {
	PageURL  string
	Selector string
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("no spreadsheet link matching %q on %s", e.Selector, e.PageURL)
}

// Is makes every MissingResourceError match domain.ErrResourceNotFound.
func (e *MissingResourceError) Is(target error) bool { return target == domain.ErrResourceNotFound }
