package respond

import "regexp"

// Patterns are applied in order; the Anthropic key form must run before the generic sk- form.
var (
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)
	bearerPattern       = regexp.MustCompile(`Bearer [A-Za-z0-9._~+/=-]+`)
	dsnPasswordPattern  = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)
	dsnSecretPattern    = regexp.MustCompile(`://:([^@]+)@`)
)

// SanitizeError returns err's message with API keys, bearer tokens and connection
// string passwords masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = bearerPattern.ReplaceAllString(msg, "Bearer ****")
	msg = dsnPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	msg = dsnSecretPattern.ReplaceAllString(msg, "://:****@")
	return msg
}
