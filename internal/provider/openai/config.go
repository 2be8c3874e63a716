package openai

// Config contains OpenAI provider configuration.
// All fields map to OpenAI SDK options:
//   - APIKey: Maps to option.WithAPIKey()
//   - OrgID: Maps to option.WithOrganization()
//   - BaseURL: Maps to option.WithBaseURL()
//
// The SDK's built-in retry is disabled; the shared completion client owns
// the retry loop so backoff behavior is identical across providers.
type Config struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	OrgID   string `env:"OPENAI_ORG_ID"`
	BaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
}
