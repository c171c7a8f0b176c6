package enums

import "fmt"

// SymbolPosition controls where the currency symbol renders relative to the amount.
type SymbolPosition string

const (
	SymbolPositionBefore SymbolPosition = "before"
	SymbolPositionAfter  SymbolPosition = "after"
)

var validSymbolPositions = []SymbolPosition{
	SymbolPositionBefore,
	SymbolPositionAfter,
}

// IsValid reports whether the value matches the canonical symbol position enum.
func (s SymbolPosition) IsValid() bool {
	for _, candidate := range validSymbolPositions {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSymbolPosition converts the raw string to SymbolPosition.
func ParseSymbolPosition(value string) (SymbolPosition, error) {
	for _, candidate := range validSymbolPositions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid symbol position %q", value)
}
