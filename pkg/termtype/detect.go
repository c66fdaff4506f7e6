package termtype

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	awsSecretPattern = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)
	longAlnumPattern = regexp.MustCompile(`^[A-Za-z0-9]{20,}$`)
)

var (
	urlSchemes      = []string{"http://", "https://", "ftp://", "ftps://"}
	githubPrefixes  = []string{"ghp_", "gho_", "ghu_", "ghs_", "ghr_"}
	apiKeyPrefixes  = []string{"sk-", "pk_"}
	databaseSchemes = []string{"mongodb://", "mysql://", "postgresql://", "redis://"}
	passwordWords   = []string{"password", "passwd", "pwd"}
	secretExcludes  = []string{"key", "token", "api"}
	apiKeyWords     = []string{"api_key", "apikey", "token", "key"}
)

// Detect classifies a search term. Rules are checked in order and the first
// match wins, so a term that looks like both an email and a password is an email.
// Lengths are counted in characters, not bytes.
func Detect(term string) DataType {
	lower := strings.ToLower(term)
	length := utf8.RuneCountInString(term)

	if strings.Contains(term, "@") && strings.Contains(term, ".") &&
		!strings.HasPrefix(lower, "http") && !strings.HasPrefix(lower, "ftp") {
		return Email
	}
	if hasAnyPrefix(lower, urlSchemes) {
		return URL
	}
	if strings.Contains(term, ".") && strings.Contains(term, "/") && !strings.Contains(term, "@") {
		return URL
	}

	if strings.HasPrefix(strings.ToUpper(term), "AKIA") {
		return AWSKey
	}
	if length == 40 && awsSecretPattern.MatchString(term) {
		return AWSSecret
	}

	if hasAnyPrefix(lower, githubPrefixes) {
		return GitHubToken
	}
	if hasAnyPrefix(lower, apiKeyPrefixes) {
		return APIKey
	}
	if strings.HasPrefix(lower, "bearer ") {
		return BearerToken
	}

	if strings.Count(term, ".") == 2 && length > 50 {
		return JWTToken
	}

	if containsAny(lower, databaseSchemes) {
		return DatabaseURL
	}

	if containsAny(lower, passwordWords) {
		return Password
	}
	if strings.Contains(lower, "secret") && !containsAny(lower, secretExcludes) {
		return Password
	}

	if containsAny(lower, apiKeyWords) && length > 10 {
		return APIKey
	}
	if longAlnumPattern.MatchString(term) {
		return APIKey
	}

	return Generic
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
