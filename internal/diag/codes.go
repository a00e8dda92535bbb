package diag

// Error-code allocation ranges (spec §6). Codes are grouped by owning
// pass; every code is defined in this one const block and raised at call
// sites as diag.CodeX (e.g. diag.CodeRebindWithoutDeclare), so the whole
// inventory lives here.
const (
	// CE0xxx: internal (constant evaluation, function declaration)
	CodeDuplicateSymbol    Code = "CE0001"
	CodeCircularConstant   Code = "CE0002"
	CodeNonConstExpression Code = "CE0003"

	// CE1xxx: scope and move
	CodeUndefinedVariable    Code = "CE1001"
	CodeUseAfterMove         Code = "CE1002"
	CodeRebindWithoutDeclare Code = "CE1003"

	// CE2xxx: type, array bounds, struct/enum, Result handling
	CodeTypeMismatch           Code = "CE2001"
	CodeNonExhaustiveMatch     Code = "CE2002"
	CodeInfiniteSize           Code = "CE2003"
	CodeErrorTypeMismatch      Code = "CE2004"
	CodePropagateInExtension   Code = "CE2005"
	CodeUnwrappedResult        Code = "CE2501" // CE25xx sub-range: .realise()
	CodeMissingPerkImpl        Code = "CE2006"
	CodeNonHashableKey         Code = "CE2007"

	// CE24xx: borrow checking
	CodeBorrowConflict     Code = "CE2401"
	CodeWriteThroughShared Code = "CE2402"

	// CE3xxx: unit management, library format
	CodeUninferrableTypeParameter Code = "CE3001"

	// CE4xxx: perks and constraints
	CodeUnsatisfiedConstraint Code = "CE4001"

	// CWxxxx: warnings
	CodeUnusedResult        Code = "CW0001"
	CodePropagationFromEntry Code = "CW0002"
)
