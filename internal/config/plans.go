package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PlanConfig is the static tier/limit/rate table for the deployment. It is
// loaded once at startup and treated as immutable; a hot reload swaps the
// whole value, never mutates it in place.
type PlanConfig struct {
	Version string `mapstructure:"version"`

	// FeatureLimits maps feature -> tier -> monthly limit.
	// A nil limit means unlimited; 0 means no access at that tier.
	FeatureLimits map[string]map[string]*int `mapstructure:"featureLimits"`

	// CreditAllotments maps subscription tier -> monthly credit grants.
	CreditAllotments map[string]CreditAllotment `mapstructure:"creditAllotments"`

	// PlanPrices maps subscription tier -> monthly price in INR.
	PlanPrices map[string]float64 `mapstructure:"planPrices"`

	// ConsultationCosts maps consultation type -> credits per session.
	ConsultationCosts map[string]float64 `mapstructure:"consultationCosts"`

	// CreditUnitPriceINR is the sale price of one purchased credit.
	CreditUnitPriceINR float64 `mapstructure:"creditUnitPriceINR"`

	// CommissionBaseRates maps partnership tier -> base rate as a fraction.
	CommissionBaseRates map[string]float64 `mapstructure:"commissionBaseRates"`

	// CommissionModifiers maps commission type -> multiplier on the base rate.
	CommissionModifiers map[string]float64 `mapstructure:"commissionModifiers"`

	// GSTRatePercent is the GST percentage applied to every invoice line.
	GSTRatePercent float64 `mapstructure:"gstRatePercent"`

	// HSNCodes maps invoice line category -> HSN/SAC code.
	HSNCodes map[string]string `mapstructure:"hsnCodes"`
}

// CreditAllotment is the per-cycle credit grant for a tier.
type CreditAllotment struct {
	General   float64 `mapstructure:"general"`
	Emergency float64 `mapstructure:"emergency"`
}

const (
	defaultCommissionTier = "basic"
	defaultHSNCategory    = "platform_fee"
)

// DefaultPlanConfig returns the compiled-in plan tables used when no
// plans.yml is present.
func DefaultPlanConfig() PlanConfig {
	return PlanConfig{
		Version: "2025-08",
		FeatureLimits: map[string]map[string]*int{
			"health_analytics": {"free": intPtr(0), "trial": intPtr(3), "basic": intPtr(3), "premium": nil, "enterprise": nil},
			"expert_chat":      {"free": intPtr(0), "trial": intPtr(1), "basic": intPtr(5), "premium": intPtr(20), "enterprise": nil},
			"video_consult":    {"free": intPtr(0), "trial": intPtr(1), "basic": intPtr(2), "premium": intPtr(10), "enterprise": nil},
			"ai_diet_planner":  {"free": intPtr(0), "trial": intPtr(1), "basic": intPtr(3), "premium": intPtr(10), "enterprise": nil},
			"training_plans":   {"free": intPtr(1), "trial": intPtr(2), "basic": intPtr(5), "premium": nil, "enterprise": nil},
		},
		CreditAllotments: map[string]CreditAllotment{
			"free":       {General: 0, Emergency: 0},
			"trial":      {General: 2, Emergency: 1},
			"basic":      {General: 10, Emergency: 2},
			"premium":    {General: 30, Emergency: 5},
			"enterprise": {General: 100, Emergency: 10},
		},
		PlanPrices: map[string]float64{
			"free":       0,
			"trial":      0,
			"basic":      299,
			"premium":    699,
			"enterprise": 2499,
		},
		ConsultationCosts: map[string]float64{
			"text":      1,
			"video":     2,
			"emergency": 3,
			"follow_up": 0.5,
		},
		CreditUnitPriceINR: 50,
		CommissionBaseRates: map[string]float64{
			"basic":      0.10,
			"premium":    0.15,
			"enterprise": 0.20,
		},
		CommissionModifiers: map[string]float64{
			"appointment":         1.0,
			"referral":            1.5,
			"subscription":        0.8,
			"corporate":           1.2,
			"health_verification": 0.5,
			"training_package":    1.3,
		},
		GSTRatePercent: 18,
		HSNCodes: map[string]string{
			"digital_services": "998431",
			"consulting":       "998312",
			"physical_goods":   "4201",
			"platform_fee":     "998599",
		},
	}
}

func intPtr(v int) *int { return &v }

// FeatureLimit returns the monthly limit for (feature, tier). A nil limit
// with ok=true means unlimited. ok=false means the feature is unknown.
func (c PlanConfig) FeatureLimit(feature, tier string) (limit *int, ok bool) {
	tiers, ok := c.FeatureLimits[feature]
	if !ok {
		return nil, false
	}
	limit, ok = tiers[tier]
	if !ok {
		// A tier missing from the row has no access rather than unlimited.
		zero := 0
		return &zero, true
	}
	return limit, true
}

// Allotment returns the per-cycle credit grant for a tier.
func (c PlanConfig) Allotment(tier string) CreditAllotment {
	return c.CreditAllotments[tier]
}

// PlanPrice returns the monthly price for a tier in INR.
func (c PlanConfig) PlanPrice(tier string) decimal.Decimal {
	return decimal.NewFromFloat(c.PlanPrices[tier])
}

// ConsultationCost returns the credit cost of a consultation type.
func (c PlanConfig) ConsultationCost(consultationType string) (decimal.Decimal, bool) {
	cost, ok := c.ConsultationCosts[consultationType]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(cost), true
}

// CreditUnitPrice returns the INR sale price of one purchased credit.
func (c PlanConfig) CreditUnitPrice() decimal.Decimal {
	return decimal.NewFromFloat(c.CreditUnitPriceINR)
}

// CommissionBaseRate returns the base commission rate for a partnership
// tier. Unrecognized tiers fall back to the basic rate.
func (c PlanConfig) CommissionBaseRate(tier string) decimal.Decimal {
	rate, ok := c.CommissionBaseRates[tier]
	if !ok {
		rate = c.CommissionBaseRates[defaultCommissionTier]
	}
	return decimal.NewFromFloat(rate)
}

// CommissionModifier returns the multiplier for a commission type.
// Unrecognized types use a neutral 1.0 modifier.
func (c PlanConfig) CommissionModifier(commissionType string) decimal.Decimal {
	modifier, ok := c.CommissionModifiers[commissionType]
	if !ok {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(modifier)
}

// GSTRate returns the GST rate as a fraction (0.18 for 18%).
func (c PlanConfig) GSTRate() decimal.Decimal {
	return decimal.NewFromFloat(c.GSTRatePercent).Div(decimal.NewFromInt(100))
}

// HSNCode returns the HSN/SAC code for an invoice line category, defaulting
// to the platform fee code for unknown categories.
func (c PlanConfig) HSNCode(category string) string {
	if code, ok := c.HSNCodes[category]; ok {
		return code
	}
	return c.HSNCodes[defaultHSNCategory]
}

// PlanConfigHolder holds the active PlanConfig behind an atomic swap so
// lookups never see a partially applied reload.
type PlanConfigHolder struct {
	current atomic.Value // holds PlanConfig
}

// NewPlanConfigHolder loads plans.yml (or the compiled-in defaults) and
// watches the file for hot reloads.
func NewPlanConfigHolder(logger *zap.Logger) (*PlanConfigHolder, error) {
	log := logger.Named("plan-config")
	v := viper.New()

	v.SetConfigName("plans")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/woofdesk/config")
	v.AddConfigPath("/etc/woofdesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WOOFDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultPlanConfig()
	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}
	if fileFound {
		if err := v.UnmarshalKey("plans", &cfg); err != nil {
			return nil, err
		}
	}
	if err := validatePlanConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PlanConfigHolder{}
	holder.current.Store(cfg)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated := DefaultPlanConfig()
			if err := v.UnmarshalKey("plans", &updated); err != nil {
				log.Warn("reload failed", zap.Error(err))
				return
			}
			if err := validatePlanConfig(updated); err != nil {
				log.Warn("invalid config ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

// NewStaticPlanConfigHolder wraps a fixed PlanConfig, for tests.
func NewStaticPlanConfigHolder(cfg PlanConfig) *PlanConfigHolder {
	holder := &PlanConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

// Get returns the active plan configuration.
func (h *PlanConfigHolder) Get() PlanConfig {
	return h.current.Load().(PlanConfig)
}

func validatePlanConfig(cfg PlanConfig) error {
	if len(cfg.FeatureLimits) == 0 {
		return errors.New("plans.featureLimits cannot be empty")
	}
	if len(cfg.CommissionBaseRates) == 0 {
		return errors.New("plans.commissionBaseRates cannot be empty")
	}
	if _, ok := cfg.CommissionBaseRates[defaultCommissionTier]; !ok {
		return errors.New("plans.commissionBaseRates must include the basic tier")
	}
	for tier, rate := range cfg.CommissionBaseRates {
		if rate < 0 || rate > 1 {
			return errors.New("plans.commissionBaseRates out of range for tier " + tier)
		}
	}
	for name, modifier := range cfg.CommissionModifiers {
		if modifier < 0 {
			return errors.New("plans.commissionModifiers negative for type " + name)
		}
	}
	for feature, tiers := range cfg.FeatureLimits {
		for tier, limit := range tiers {
			if limit != nil && *limit < 0 {
				return errors.New("plans.featureLimits negative for " + feature + "/" + tier)
			}
		}
	}
	for name, cost := range cfg.ConsultationCosts {
		if cost < 0 {
			return errors.New("plans.consultationCosts negative for type " + name)
		}
	}
	if cfg.CreditUnitPriceINR <= 0 {
		return errors.New("plans.creditUnitPriceINR must be positive")
	}
	if cfg.GSTRatePercent < 0 || cfg.GSTRatePercent > 100 {
		return errors.New("plans.gstRatePercent out of range")
	}
	return nil
}
