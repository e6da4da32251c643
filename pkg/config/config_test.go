package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studyflow/billing/pkg/types"
)

func TestGetTierByProductID(t *testing.T) {
	cfg := &Config{
		Tiers: []*types.Tier{
			{ProductID: "prod_basic", Name: "Basic"},
			{ProductID: "prod_premium", Name: "Premium"},
		},
	}

	tier := cfg.GetTierByProductID("prod_premium")
	require.NotNil(t, tier)
	require.Equal(t, "Premium", tier.Name)

	require.Nil(t, cfg.GetTierByProductID("prod_unknown"))
}
