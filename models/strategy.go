package models

// Strategy identifies an authentication method. It is persisted verbatim in
// the credentials, user_providers and user_token_pairs relations, so values
// must remain stable once in use.
type Strategy string

// Supported authentication strategies. StrategyLocal is the password-based
// login flow; the rest are named OAuth providers a user may link.
const (
	StrategyLocal    Strategy = "local"
	StrategyGoogle   Strategy = "google"
	StrategyGitHub   Strategy = "github"
	StrategyFacebook Strategy = "facebook"
	StrategyTwitter  Strategy = "twitter"
)

// Valid reports whether s is one of the supported strategies.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyLocal, StrategyGoogle, StrategyGitHub, StrategyFacebook, StrategyTwitter:
		return true
	}
	return false
}

// String implements [fmt.Stringer].
func (s Strategy) String() string {
	return string(s)
}
