package batch

import "github.com/joseph-ayodele/certificates-processor/constants"

// State is a position in the per-file state machine.
//
//	Pending -> AlreadyProcessed | Extracted
//	Extracted -> InferenceError | DuplicateByLedger | NoIdentification | Identified
//	Identified -> Renamed | MovedToDuplicateVault | FileSystemError
//
// DuplicateByLedger also ends in FileSystemError when the vault move fails.
type State int

const (
	Pending State = iota
	Extracted
	Identified

	AlreadyProcessed
	InferenceError
	DuplicateByLedger
	NoIdentification
	Renamed
	MovedToDuplicateVault
	FileSystemError
)

var stateNames = map[State]string{
	Pending:               "pending",
	Extracted:             "extracted",
	Identified:            "identified",
	AlreadyProcessed:      "already_processed",
	InferenceError:        "inference_error",
	DuplicateByLedger:     "duplicate_by_ledger",
	NoIdentification:      "no_identification",
	Renamed:               "renamed",
	MovedToDuplicateVault: "moved_to_duplicate_vault",
	FileSystemError:       "filesystem_error",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s State) Terminal() bool {
	return s >= AlreadyProcessed
}

// Category maps a terminal state to its report bucket. Non-terminal states have none.
func (s State) Category() constants.Category {
	switch s {
	case AlreadyProcessed:
		return constants.CategoryAlreadyProcessed
	case Renamed:
		return constants.CategoryProcessed
	case DuplicateByLedger, MovedToDuplicateVault:
		return constants.CategoryDuplicates
	case InferenceError, NoIdentification, FileSystemError:
		return constants.CategoryErrors
	default:
		return ""
	}
}
