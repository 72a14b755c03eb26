package common

// AuthorizationHeaderName is the HTTP header and gRPC metadata key carrying
// the credential presentation.
const AuthorizationHeaderName = "authorization"

// SigningAlgorithm is the only signing algorithm accepted for bearer tokens.
const SigningAlgorithm = "HS512"
