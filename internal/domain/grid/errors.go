package grid

import "github.com/ibportal/backend/internal/domain/shared"

var (
	// ErrEmptyExport is returned when an export is requested over an empty filtered set
	ErrEmptyExport = shared.NewDomainError("EMPTY_EXPORT", "There is no data to export")

	// ErrExportFailed wraps any failure of an export writer
	ErrExportFailed = shared.NewDomainError("EXPORT_FAILED", "Export failed")

	// ErrNotSortable is returned when sorting by an index, non-sortable or unknown column
	ErrNotSortable = shared.NewDomainError("INVALID_INPUT", "Column is not sortable")

	// ErrUnknownSelect is returned when a select filter key is not configured
	ErrUnknownSelect = shared.NewDomainError("INVALID_INPUT", "Unknown filter")

	// ErrInvalidDirection is returned when a sort direction is neither asc nor desc
	ErrInvalidDirection = shared.NewDomainError("INVALID_INPUT", "Sort direction must be asc or desc")
)
