// Package termtype classifies search terms and builds code-search queries for them.
package termtype

import "strings"

// DataType is the kind of sensitive value a search term looks like.
type DataType string

const (
	Email       DataType = "email"
	URL         DataType = "url"
	AWSKey      DataType = "aws_key"
	AWSSecret   DataType = "aws_secret"
	GitHubToken DataType = "github_token"
	APIKey      DataType = "api_key"
	BearerToken DataType = "bearer_token"
	JWTToken    DataType = "jwt_token"
	DatabaseURL DataType = "database_url"
	Password    DataType = "password"
	Generic     DataType = "generic"
)

// All returns every data type in detection order.
func All() []DataType {
	return []DataType{
		Email, URL, AWSKey, AWSSecret, GitHubToken, APIKey,
		BearerToken, JWTToken, DatabaseURL, Password, Generic,
	}
}

// Label returns the upper-case display form of the type.
func (t DataType) Label() string {
	return strings.ToUpper(string(t))
}

// Classification is the detection result for one term.
type Classification struct {
	Term    string   `json:"term"`
	Type    DataType `json:"type"`
	Queries []string `json:"queries"`
}

// Classify detects the term type and generates its queries.
func Classify(term string) Classification {
	t := Detect(term)
	return Classification{
		Term:    term,
		Type:    t,
		Queries: Queries(term, t),
	}
}

// ParseTerms splits a comma-separated list, trimming and dropping empty entries.
func ParseTerms(s string) []string {
	var terms []string
	for _, part := range strings.Split(s, ",") {
		if term := strings.TrimSpace(part); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}
