package db

const (
	keyAccessToken  = "access_token"
	keyLastUsername = "last_username"
)

// SaveSession stores the access token of a successful login along with the
// username that produced it
func (db *DB) SaveSession(token, username string) error {
	if err := db.SetSetting(keyAccessToken, token); err != nil {
		return err
	}
	return db.SetSetting(keyLastUsername, username)
}

// AccessToken returns the stored token, or "" when logged out
func (db *DB) AccessToken() (string, error) {
	return db.GetSetting(keyAccessToken)
}

// LastUsername returns the username of the last login, kept across logouts
func (db *DB) LastUsername() (string, error) {
	return db.GetSetting(keyLastUsername)
}

// ClearSession forgets the stored token
func (db *DB) ClearSession() error {
	return db.DeleteSetting(keyAccessToken)
}
