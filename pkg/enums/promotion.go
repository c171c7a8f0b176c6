package enums

import "fmt"

// PromotionType identifies who funds a promotion.
type PromotionType string

const (
	PromotionTypeSeller PromotionType = "seller"
	PromotionTypeSystem PromotionType = "system"
)

var validPromotionTypes = []PromotionType{
	PromotionTypeSeller,
	PromotionTypeSystem,
}

// IsValid reports whether the value matches the canonical promotion type enum.
func (p PromotionType) IsValid() bool {
	for _, candidate := range validPromotionTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromotionType converts the raw string to PromotionType.
func ParsePromotionType(value string) (PromotionType, error) {
	for _, candidate := range validPromotionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion type %q", value)
}

// PromotionScope restricts a promotion or coupon to a catalog subset.
type PromotionScope string

const (
	PromotionScopeAll      PromotionScope = "all"
	PromotionScopeCategory PromotionScope = "category"
	PromotionScopeTag      PromotionScope = "tag"
	PromotionScopeBrand    PromotionScope = "brand"
)

var validPromotionScopes = []PromotionScope{
	PromotionScopeAll,
	PromotionScopeCategory,
	PromotionScopeTag,
	PromotionScopeBrand,
}

// IsValid reports whether the value matches the canonical scope enum.
func (p PromotionScope) IsValid() bool {
	for _, candidate := range validPromotionScopes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromotionScope converts the raw string to PromotionScope.
func ParsePromotionScope(value string) (PromotionScope, error) {
	for _, candidate := range validPromotionScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion scope %q", value)
}
