package happi

import "github.com/scigolib/happi/internal/utils"

// Errors reported by diagnostics. Match them with errors.Is.
var (
	ErrConfiguration            = utils.ErrConfiguration
	ErrConflictingAxisDirective = utils.ErrConflictingAxisDirective
	ErrEmptySelection           = utils.ErrEmptySelection
	ErrEmptyTargetGrid          = utils.ErrEmptyTargetGrid
	ErrUnknownQuantity          = utils.ErrUnknownQuantity
	ErrUnparsableOperation      = utils.ErrUnparsableOperation
	ErrMissingTimestep          = utils.ErrMissingTimestep
	ErrSourceOpen               = utils.ErrSourceOpen
	ErrInvalidDiagnostic        = utils.ErrInvalidDiagnostic
)
