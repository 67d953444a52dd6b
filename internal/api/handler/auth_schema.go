package handler

type signupRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"required,oneof=admin seller customer"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"required,oneof=admin seller customer"`
}

// errorResponse mirrors the envelope rendered by the central error handler,
// for documentation purposes.
type errorResponse struct {
	Error string `json:"error"`
}

// signupResponse confirms a registration. No credential material is echoed.
type signupResponse struct {
	Message string `json:"message"`
}

// loginResponse carries the account reference the caller is expected to
// persist and present on later privileged actions.
type loginResponse struct {
	Message string `json:"message"`
	Role    string `json:"role"`
	UserID  string `json:"user_id"`
}
