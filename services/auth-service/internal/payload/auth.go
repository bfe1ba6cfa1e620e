package payload

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

type RegisterRequest struct {
	Email           string `json:"email"            validate:"required,email"`
	ConfirmEmail    string `json:"confirm_email"    validate:"required,eqfield=Email"`
	Password        string `json:"password"         validate:"required,password"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,password"`
}

type LogErrorRequest struct {
	Message string `json:"message" validate:"max=2000"`
	Stack   string `json:"stack"   validate:"max=20000"`
	Type    string `json:"type"    validate:"max=200"`
}

type LogErrorResponse struct {
	Success bool `json:"success"`
}

// UserResponse is the public view of an account. It never carries credentials.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ValidateResetTokenResponse struct {
	Valid bool `json:"valid"`
}

type ErrorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}
