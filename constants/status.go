package constants

// ValidityStatus is the certificate validity shown in the report, derived from the expiration date.
type ValidityStatus string

// Stable values (written verbatim into the spreadsheet).
const (
	ValidityExpired      ValidityStatus = "VENCIDO"        // expiration date in the past
	ValidityExpiringSoon ValidityStatus = "POR VENCER"     // expires within ExpiringSoonWindowDays
	ValidityValid        ValidityStatus = "VIGENTE"        // expires later
	ValidityNoDate       ValidityStatus = "Sin fecha"      // no expiration date extracted
	ValidityInvalidDate  ValidityStatus = "Fecha inválida" // unparseable expiration date
)

const ExpiringSoonWindowDays = 30
