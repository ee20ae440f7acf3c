package models

import "time"

// OAuthToken holds the credentials obtained from a provider for one
// user. There is at most one row per (user, provider); a re-link
// overwrites the previous credentials.
type OAuthToken struct {
	ID           int        `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       string     `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_oauth_tokens_user_provider"`
	Provider     string     `json:"provider" gorm:"not null;uniqueIndex:idx_oauth_tokens_user_provider"`
	AccessToken  string     `json:"-" gorm:"not null"`
	RefreshToken *string    `json:"-"`
	ExpiresAt    *time.Time `json:"expires_at"` // nil means the provider reported no expiry
	Scope        *string    `json:"scope"`
	TokenType    string     `json:"token_type" gorm:"default:Bearer"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName specifies the table name for OAuthToken
func (OAuthToken) TableName() string {
	return "oauth_tokens"
}

// Expired reports whether the access token is past its expiry. A nil
// expiry is treated conservatively as already expired: such a token is
// never handed out directly, only renewed through its refresh token.
func (t *OAuthToken) Expired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return true
	}
	return now.After(*t.ExpiresAt)
}
