package models

import "time"

// CampaignInfo is the on-disk metadata record ({name}_info.json)
type CampaignInfo struct {
	Name        string `json:"name"`
	SenderEmail string `json:"sender_email"`
	Subject     string `json:"subject"`
}

// CampaignSource describes where a new campaign body comes from. Exactly one
// of Upload or Template is expected to be set.
type CampaignSource struct {
	UploadName string
	UploadData []byte
	Template   string
}

// IsUpload reports whether the source carries an uploaded file
func (s CampaignSource) IsUpload() bool {
	return s.UploadName != ""
}

// ClientInfo is the classification of a raw User-Agent header
type ClientInfo struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

// LogEntry is one captured form submission
type LogEntry struct {
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	Timestamp string     `json:"timestamp"`
	UserAgent string     `json:"user_agent"`
	Client    ClientInfo `json:"client"`
	Legacy    bool       `json:"legacy,omitempty"` // Record predates the user agent column
}

// PageReport summarises the forms found in a landing page
type PageReport struct {
	Forms            int
	HasPasswordField bool
	HasUsernameField bool
}

// CaptureEvent is broadcast to live subscribers when a submission is logged
type CaptureEvent struct {
	ID       string     `json:"id"`
	Campaign string     `json:"campaign"`
	Email    string     `json:"email"`
	Client   ClientInfo `json:"client"`
	Time     time.Time  `json:"time"`
}
