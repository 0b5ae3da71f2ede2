package models

// MAppConfig is the configuration document consumed by the portfolio web
// application. The runner only materializes the default skeleton; it never
// reads the file back or interprets the values.
// Field order matches the document the application itself writes.
type MAppConfig struct {
	Stocks              []string       `json:"stocks"`
	AlertThreshold      float64        `json:"alert_threshold"`
	LookbackDays        int            `json:"lookback_days"`
	ScanIntervalMinutes int            `json:"scan_interval_minutes"`
	TradingViewURL      string         `json:"tradingview_url"`
	ThesisEntries       []MThesisEntry `json:"thesis_entries"`
	EmailSettings       MEmailSettings `json:"email_settings"`
}

type MThesisEntry struct {
	Symbol    string `json:"symbol"`
	Thesis    string `json:"thesis"`
	CreatedAt string `json:"created_at"`
}

type MEmailSettings struct {
	Enabled        bool   `json:"enabled"`
	SMTPServer     string `json:"smtp_server"`
	SMTPPort       int    `json:"smtp_port"`
	SenderEmail    string `json:"sender_email"`
	SenderPassword string `json:"sender_password"`
	RecipientEmail string `json:"recipient_email"`
}

// -----------------------------------------------------------------------------

// DefaultAppConfig returns the skeleton written when no config file exists.
func DefaultAppConfig() MAppConfig {
	return MAppConfig{
		Stocks:              []string{},
		AlertThreshold:      0.05,
		LookbackDays:        30,
		ScanIntervalMinutes: 30,
		TradingViewURL:      "",
		ThesisEntries:       []MThesisEntry{},
		EmailSettings: MEmailSettings{
			Enabled:        false,
			SMTPServer:     "smtp.gmail.com",
			SMTPPort:       587,
			SenderEmail:    "",
			SenderPassword: "",
			RecipientEmail: "",
		},
	}
}
