package logging

import (
	"regexp"

	"github.com/m-mizutani/masq"
)

var (
	// Credentials in URL userinfo, e.g. redis://:pw@cache:6379 or
	// https://user:pw@price-fetcher.
	urlCredentialsPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://[^/@\s]*:[^/@\s]*@`)

	bearerPattern = regexp.MustCompile(`(?i)^bearer\s+.+$`)
)

// RedactOptions returns the masq rules for the gateway's secrets: the Redis
// password under every name it travels by (koanf key, environment variable,
// struct field), bearer credentials and URLs with embedded credentials.
func RedactOptions() []masq.Option {
	return []masq.Option{
		masq.WithFieldName("password"),
		masq.WithFieldName("Password"),
		masq.WithFieldName("cache.password"),
		masq.WithFieldName("redis_password"),
		masq.WithFieldName("REDIS_PASSWORD"),

		masq.WithFieldName("authorization"),
		masq.WithFieldName("Authorization"),

		masq.WithFieldPrefix("secret"),

		masq.WithRegex(urlCredentialsPattern),
		masq.WithRegex(bearerPattern),
	}
}

// NewReplaceAttr returns a ReplaceFunc applying RedactOptions plus opts.
func NewReplaceAttr(opts ...masq.Option) ReplaceFunc {
	return masq.New(append(RedactOptions(), opts...)...)
}
