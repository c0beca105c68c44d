package config

import "time"

// DevServerConfig configures the development coordination server.
type DevServerConfig interface {
	GetAccessTokenTTL() time.Duration
	GetSessionTTL() time.Duration
	GetAuthCodeTTL() time.Duration
	GetDevSigningAlg() string
	GetDevRSAKeyFile() string
}

const (
	accessTokenTTLVar = "WORKBENCH_DEV_ACCESS_TTL"
	sessionTTLVar     = "WORKBENCH_DEV_SESSION_TTL"
	authCodeTTLVar    = "WORKBENCH_DEV_CODE_TTL"
	signingAlgVar     = "WORKBENCH_DEV_SIGNING_ALG"
	rsaKeyFileVar     = "WORKBENCH_DEV_RSA_KEY_FILE"
)

type DevServer struct{}

var _ DevServerConfig = DevServer{}

// GetAccessTokenTTL is the lifetime of issued bearer tokens. Kept short so
// the refresh path is exercised.
func (DevServer) GetAccessTokenTTL() time.Duration {
	return GetEnvDuration(accessTokenTTLVar, 5*time.Minute)
}

// GetSessionTTL bounds how long the refresh cookie stays valid.
func (DevServer) GetSessionTTL() time.Duration {
	return GetEnvDuration(sessionTTLVar, 12*time.Hour)
}

func (DevServer) GetAuthCodeTTL() time.Duration {
	return GetEnvDuration(authCodeTTLVar, 2*time.Minute)
}

// GetDevSigningAlg is RS256 (published as a JWKS) or HS256 (shared key).
func (DevServer) GetDevSigningAlg() string {
	return GetEnv(signingAlgVar, "RS256")
}

// GetDevRSAKeyFile names a PKCS#1 PEM private key. A fresh key is generated
// on start when empty.
func (DevServer) GetDevRSAKeyFile() string {
	return GetEnv(rsaKeyFileVar, "")
}
