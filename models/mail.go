package models

// MailSettings holds the SMTP connection parameters stored in
// mail_config.json
type MailSettings struct {
	Server        string `json:"mail_server"`
	Port          int    `json:"mail_port"`
	UseTLS        bool   `json:"mail_use_tls"` // STARTTLS
	UseSSL        bool   `json:"mail_use_ssl"` // Implicit TLS
	Username      string `json:"mail_username"`
	Password      string `json:"mail_password"`
	DefaultSender string `json:"mail_default_sender"`
}

// DefaultMailSettings mirrors the values used before any configuration is saved
func DefaultMailSettings() MailSettings {
	return MailSettings{
		Port:   587,
		UseTLS: true,
	}
}

// Configured reports whether enough is known to attempt delivery
func (s MailSettings) Configured() bool {
	return s.Server != "" && s.Port > 0
}

// SendResult is the outcome for a single recipient
type SendResult struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SendReport aggregates a campaign delivery run
type SendReport struct {
	BatchID   string       `json:"batch_id"`
	Campaign  string       `json:"campaign"`
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Results   []SendResult `json:"results"`
}

// Failed returns the number of recipients that could not be reached
func (r SendReport) Failed() int {
	return r.Total - r.Succeeded
}
