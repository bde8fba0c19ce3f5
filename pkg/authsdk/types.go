package authsdk

// TokenEnvelope is the token response returned by login and refresh.
type TokenEnvelope struct {
	AccessToken  string              `json:"accessToken"`
	Expiry       int64               `json:"expiry"` // epoch milliseconds
	RefreshToken string              `json:"refreshToken"`
	UserID       string              `json:"userId"`
	Claims       map[string][]string `json:"claims"`
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	DeviceType string `json:"deviceType"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// UserInfo describes a user account.
type UserInfo struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Fullname  string   `json:"fullname"`
	RoleIDs   []string `json:"roleIds"`
	CreatedAt string   `json:"createdAt"`
}

type listUsersResponse struct {
	Users []UserInfo `json:"users"`
}

// CreateUserRequest creates a new user account.
type CreateUserRequest struct {
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Password string `json:"password"`
}

// RoleInfo describes a role and its permission grants.
type RoleInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type listRolesResponse struct {
	Roles []RoleInfo `json:"roles"`
}
