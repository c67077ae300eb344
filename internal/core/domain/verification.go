package domain

// VerificationState is what the verify page shows while waiting for the
// emailed link to be followed.
type VerificationState string

const (
	VerificationPending   VerificationState = "pending"
	VerificationVerifying VerificationState = "verifying"
	VerificationVerified  VerificationState = "verified"
)

// Navigation hints returned to clients.
const (
	RouteHome       = "/"
	RouteSignup     = "/signup"
	RouteVerify     = "/verify"
	RouteOnboarding = "/onboarding"
	RouteAdmin      = "/admin"
	RouteDashboard  = "/dashboard"
)
