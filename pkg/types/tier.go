package types

// Tier is the locally defined display record for a Stripe product.
// Entries come from config; unknown products resolve to DefaultTier so a new
// pricing tier never breaks notification delivery.
type Tier struct {
	ProductID     string   `json:"product_id" mapstructure:"product_id"`
	Name          string   `json:"name" mapstructure:"name"`
	NameLocalized string   `json:"name_localized" mapstructure:"name_localized"`
	Benefits      []string `json:"benefits" mapstructure:"benefits"`
	// BenefitsLocalized mirrors Benefits in the platform's second language.
	BenefitsLocalized []string `json:"benefits_localized" mapstructure:"benefits_localized"`
}

// DisplayName returns the tier name for the given language, falling back to
// the default name when no localized variant exists.
func (t *Tier) DisplayName(language string) string {
	if language != "" && language != LanguageDefault && t.NameLocalized != "" {
		return t.NameLocalized
	}
	return t.Name
}

// BenefitList returns the benefit list for the given language.
func (t *Tier) BenefitList(language string) []string {
	if language != "" && language != LanguageDefault && len(t.BenefitsLocalized) > 0 {
		return t.BenefitsLocalized
	}
	return t.Benefits
}

const LanguageDefault = "en"

// DefaultTier is the fallback record for products absent from the lookup table.
func DefaultTier() *Tier {
	return &Tier{
		Name:          "Membership",
		NameLocalized: "Membership",
		Benefits:      []string{"Full platform access"},
	}
}
