package constants

const (
	// ProviderName is the provider identifier the CMS expects in messages and payloads
	ProviderName = "github"

	// CodeQueryParam is the query parameter carrying the authorization code
	CodeQueryParam = "code"

	// InvalidMethodBody is the body returned for unsupported methods
	InvalidMethodBody = "Invalid Method"
)

// Routes served by the relay
const (
	LandingPath  = "/"
	AuthPath     = "/auth"
	CallbackPath = "/callback"
	MetricsPath  = "/metrics"
)

// CORS preflight values
const (
	AllowMethods = "GET"
	AllowHeaders = "Content-Type"
)

// Token endpoint parameters
const (
	ParamCode         = "code"
	ParamClientID     = "client_id"
	ParamClientSecret = "client_secret"
	ParamScope        = "scope"
)
