package userdata

type ContextKey string

const SessionContextKey ContextKey = "session"

// Info gathered after successful oauth2 callback
type AuthorizedUserInfo struct {
	Id         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
	Locale     string `json:"locale"`
}
