package termtype

import "strings"

// Queries returns the search strategies for a term, most specific first.
// Every query is restricted to file contents with the in:file qualifier.
func Queries(term string, t DataType) []string {
	exact := quoted("", term)
	bare := term + " in:file"

	switch t {
	case Email:
		username, domain, _ := strings.Cut(term, "@")
		return []string{
			exact,
			bare,
			quoted("", domain),
			username + " " + domain + " in:file",
			quoted("", "mailto:"+term),
			quoted("email:", term),
		}

	case URL:
		clean := strings.NewReplacer("https://", "", "http://", "", "ftp://", "").Replace(term)
		return []string{
			exact,
			bare,
			quoted("", clean),
			clean + " in:file",
			quoted("url:", term),
			quoted("href=", term),
		}

	case APIKey, GitHubToken, BearerToken:
		return []string{
			exact,
			bare,
			quoted("token:", term),
			quoted("key:", term),
			quoted("api_key:", term),
			quoted("apikey:", term),
			quoted("Authorization:", term),
			"Bearer " + term + " in:file",
		}

	case AWSKey:
		return []string{
			exact,
			bare,
			quoted("AWS_ACCESS_KEY_ID:", term),
			quoted("access_key:", term),
			quoted("aws_access_key:", term),
		}

	case AWSSecret:
		return []string{
			exact,
			bare,
			quoted("AWS_SECRET_ACCESS_KEY:", term),
			quoted("secret_key:", term),
			quoted("aws_secret:", term),
		}

	case JWTToken:
		return []string{
			exact,
			bare,
			quoted("jwt:", term),
			quoted("token:", term),
		}

	case DatabaseURL:
		return []string{
			exact,
			bare,
			quoted("DATABASE_URL:", term),
			quoted("connection_string:", term),
		}

	case Password:
		return []string{
			exact,
			bare,
			quoted("password:", term),
			quoted("passwd:", term),
			quoted("pwd:", term),
		}

	default:
		return []string{exact, bare}
	}
}

// quoted renders prefix"value" in:file. The value is not escaped; GitHub
// search has no escape syntax for embedded quotes.
func quoted(prefix, value string) string {
	return prefix + `"` + value + `" in:file`
}
