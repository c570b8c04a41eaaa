package commands

import (
	"wmsadmin/application/dto"
	"wmsadmin/pkg/utils"
)

// BatchSaveCommand commits one edit session's creates, updates and deletes
// as a single all-or-nothing unit.
type BatchSaveCommand struct {
	Request dto.BatchSaveRequest
	// Actor is the authenticated username. Empty falls back to the item's
	// createdBy or modifiedBy.
	Actor string `validate:"max=50"`
}

// Validate checks the envelope only. Item rules run inside the aggregate so
// that every failing item is reported together.
func (c BatchSaveCommand) Validate() error {
	return utils.ValidateStruct(c)
}
