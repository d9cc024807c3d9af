package agent

import (
	"errors"

	"github.com/recallmem/recall/pkg/recallerrs"
)

func asSchemaValidationError(err error) (*recallerrs.SchemaValidationError, bool) {
	var ve *recallerrs.SchemaValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
