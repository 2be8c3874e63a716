package gemini

// Config contains Gemini provider configuration. The key maps to the
// Gemini API backend of google.golang.org/genai.
type Config struct {
	APIKey string `env:"GEMINI_API_KEY"`
}
