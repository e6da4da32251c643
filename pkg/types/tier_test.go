package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTier_DisplayNameLocalization(t *testing.T) {
	tier := &Tier{Name: "Premium", NameLocalized: "Преміум"}
	require.Equal(t, "Premium", tier.DisplayName("en"))
	require.Equal(t, "Premium", tier.DisplayName(""))
	require.Equal(t, "Преміум", tier.DisplayName("uk"))
}

func TestTier_DisplayNameFallsBackWithoutLocalizedVariant(t *testing.T) {
	tier := &Tier{Name: "Basic"}
	require.Equal(t, "Basic", tier.DisplayName("uk"))
}

func TestTier_BenefitListLocalization(t *testing.T) {
	tier := &Tier{
		Benefits:          []string{"All courses"},
		BenefitsLocalized: []string{"Всі курси"},
	}
	require.Equal(t, []string{"All courses"}, tier.BenefitList("en"))
	require.Equal(t, []string{"Всі курси"}, tier.BenefitList("uk"))
}

func TestDefaultTier_NeverEmpty(t *testing.T) {
	tier := DefaultTier()
	require.NotEmpty(t, tier.DisplayName("en"))
	require.NotEmpty(t, tier.BenefitList("uk"))
}
