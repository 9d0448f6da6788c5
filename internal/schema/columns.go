// Package schema reconciles the drifting per-year CSV schemas into
// canonical columns with canonical types. Recognition is by exact
// header spelling (case-sensitive); per-year alias overrides map
// renamed headers back to the canonical vocabulary.
package schema

// Canonical column names as spelled by the source system's exports.
const (
	ColIncidentNumber = "INCIDENT_NUMBER"
	ColOffenseCode    = "OFFENSE_CODE"
	ColOffenseGroup   = "OFFENSE_CODE_GROUP"
	ColOffenseDesc    = "OFFENSE_DESCRIPTION"
	ColDistrict       = "DISTRICT"
	ColReportingArea  = "REPORTING_AREA"
	ColShooting       = "SHOOTING"
	ColOccurredOn     = "OCCURRED_ON_DATE"
	ColYear           = "YEAR"
	ColMonth          = "MONTH"
	ColDayOfWeek      = "DAY_OF_WEEK"
	ColHour           = "HOUR"
	ColUCRPart        = "UCR_PART"
	ColStreet         = "STREET"
)

// Derived columns appended by the feature deriver.
const (
	ColShift      = "SHIFT"
	ColIsShooting = "IS_SHOOTING"
)

// coercion identifies the canonical type a known column is coerced to.
type coercion uint8

const (
	coerceText coercion = iota // identifier or category text
	coerceInt                  // numeric classification or count
	coerceShooting             // 'Y'/numeric flag, kept faithful for derivation
	coercePassthrough          // free text, trimmed only
)

// knownColumns maps each canonical header to its coercion. Columns not
// listed here pass through untouched as extra columns.
var knownColumns = map[string]coercion{
	ColIncidentNumber: coerceText,
	ColOffenseCode:    coerceInt,
	ColOffenseGroup:   coercePassthrough,
	ColOffenseDesc:    coercePassthrough,
	ColDistrict:       coercePassthrough,
	ColReportingArea:  coerceInt,
	ColShooting:       coerceShooting,
	ColOccurredOn:     coercePassthrough,
	ColYear:           coerceInt,
	ColMonth:          coerceInt,
	ColDayOfWeek:      coercePassthrough,
	ColHour:           coerceInt,
	ColUCRPart:        coercePassthrough,
	ColStreet:         coercePassthrough,
}
