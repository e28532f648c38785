package model

// Severity is the gravity code the tracker expects on a new issue.
type Severity string

const (
	SeverityLow      Severity = "01_GRAVITY_LOW"
	SeverityMedium   Severity = "02_GRAVITY_MEDIUM"
	SeverityHigh     Severity = "03_GRAVITY_HIGH"
	SeverityCritical Severity = "04_GRAVITY_CRITICAL"
	SeverityBlock    Severity = "05_GRAVITY_BLOCK"
)

var severityByLevel = map[int]Severity{
	1: SeverityLow,
	2: SeverityMedium,
	3: SeverityHigh,
	4: SeverityCritical,
	5: SeverityBlock,
}

// ParseSeverity maps a gravity level (1-5) to its tracker code.
// An absent or unrecognized level is coerced to SeverityLow, never rejected.
func ParseSeverity(level *int) Severity {
	if level == nil {
		return SeverityLow
	}
	if s, ok := severityByLevel[*level]; ok {
		return s
	}
	return SeverityLow
}

// ParseSeverityCode accepts a tracker code as-is when it is one of the known values.
func ParseSeverityCode(code string) Severity {
	for _, s := range severityByLevel {
		if string(s) == code {
			return s
		}
	}
	return SeverityLow
}
