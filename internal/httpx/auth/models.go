package auth

// LoginResponse is returned on a successful admin login
// swagger:model LoginResponse
type LoginResponse struct {
	Success bool   `json:"success" example:"true"`
	Token   string `json:"token" example:"3f1c2b9e-..."`
}
