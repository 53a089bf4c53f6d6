package domain

// JWTClaims is the identity payload issued by the main WorkEye app.
type JWTClaims struct {
	Sub   string
	Name  string
	Email string
	Role  string
}
