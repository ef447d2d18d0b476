package policy

// PolicyConfig holds the tunable amounts and windows the resolver and
// executor consult. All fields have named defaults; zero values in a
// partially filled config are replaced, never used silently.
type PolicyConfig struct {
	// Days since purchase up to which a refund is granted (inclusive)
	RefundWindowDays int `json:"refund_window_days" yaml:"refund_window_days"`

	// Credit amount for goodwill gestures (angry defects, retention offers)
	GoodwillCreditDefault float64 `json:"goodwill_credit_default" yaml:"goodwill_credit_default"`

	// Smaller credit for loyalty acknowledgments
	LoyaltyCreditAmount float64 `json:"loyalty_credit_amount" yaml:"loyalty_credit_amount"`

	// Human-readable slot offered for callbacks
	CallbackWindow string `json:"callback_window" yaml:"callback_window"`

	// Days until a replacement unit arrives
	ReplacementDeliveryDays int `json:"replacement_delivery_days" yaml:"replacement_delivery_days"`

	// Days until a granted refund lands
	RefundETADays int `json:"refund_eta_days" yaml:"refund_eta_days"`
}

// Default returns the standard policy table.
func Default() PolicyConfig {
	return PolicyConfig{
		RefundWindowDays:        30,
		GoodwillCreditDefault:   10.0,
		LoyaltyCreditAmount:     5.0,
		CallbackWindow:          "today 4-6pm",
		ReplacementDeliveryDays: 2,
		RefundETADays:           3,
	}
}

// WithDefaults returns c with every zero field replaced by its default,
// so partial YAML overrides inherit the standard table.
func (c PolicyConfig) WithDefaults() PolicyConfig {
	def := Default()
	if c.RefundWindowDays <= 0 {
		c.RefundWindowDays = def.RefundWindowDays
	}
	if c.GoodwillCreditDefault <= 0 {
		c.GoodwillCreditDefault = def.GoodwillCreditDefault
	}
	if c.LoyaltyCreditAmount <= 0 {
		c.LoyaltyCreditAmount = def.LoyaltyCreditAmount
	}
	if c.CallbackWindow == "" {
		c.CallbackWindow = def.CallbackWindow
	}
	if c.ReplacementDeliveryDays <= 0 {
		c.ReplacementDeliveryDays = def.ReplacementDeliveryDays
	}
	if c.RefundETADays <= 0 {
		c.RefundETADays = def.RefundETADays
	}
	return c
}
