package config

type SessionConfig interface {
	GetVerifierLength() int
	GetCSRFHeader() string
	GetCoalesceRefresh() bool
}

const (
	verifierLengthVar  = "WORKBENCH_VERIFIER_LENGTH"
	csrfHeaderVar      = "WORKBENCH_CSRF_HEADER"
	coalesceRefreshVar = "WORKBENCH_COALESCE_REFRESH"
)

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetVerifierLength() int {
	return GetEnvInt(verifierLengthVar, 128)
}

func (Session) GetCSRFHeader() string {
	return GetEnv(csrfHeaderVar, "X-CSRF-Token")
}

// GetCoalesceRefresh reports whether concurrent 401s share one refresh call.
func (Session) GetCoalesceRefresh() bool {
	return GetEnvBool(coalesceRefreshVar, false)
}
