package models

// Identity est l'identité authentifiée courante et ses jetons.
type Identity struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
}
