package api

// Platform identifies a supported notification platform.
type Platform string

const (
	PlatformTeams Platform = "teams"
	PlatformSlack Platform = "slack"
)

// Valid reports whether the platform is one the backend accepts.
func (p Platform) Valid() bool {
	return p == PlatformTeams || p == PlatformSlack
}

// Label returns the display name for the platform.
func (p Platform) Label() string {
	switch p {
	case PlatformTeams:
		return "Microsoft Teams"
	case PlatformSlack:
		return "Slack"
	default:
		return string(p)
	}
}

// Webhook is one configured notification destination as reported by the
// backend. Token is the stable identifier; Status is the backend's
// lifecycle label (pending, verified).
type Webhook struct {
	Token      string   `json:"token"`
	Type       Platform `json:"type"`
	Status     string   `json:"status"`
	WebhookURL string   `json:"webhook_url"`
}

// Status is the backend's authoritative application snapshot.
type Status struct {
	LoggedIn         bool      `json:"logged_in"`
	HasAdminPassword bool      `json:"has_admin_password"`
	HasWebhooks      bool      `json:"has_webhooks"`
	SetupComplete    bool      `json:"setup_complete"`
	Webhooks         []Webhook `json:"webhooks"`
}

// SetupResult is the backend's response to a webhook creation request.
type SetupResult struct {
	Token          string `json:"token"`
	WaitingForTest bool   `json:"waiting_for_test"`
}
