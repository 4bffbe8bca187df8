package common

const (
	// AuthorizationHeaderName carries the bearer token on API requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the only accepted authorization scheme.
	BearerScheme = "Bearer"

	// UploadsPrefix is the URL path and reference prefix of stored cover images.
	UploadsPrefix = "uploads"
)
