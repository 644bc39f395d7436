package config

import "context"

// SecretProvider resolves secret references (SSM paths in deployed
// environments) to plaintext values.
type SecretProvider interface {
	// GetParametersBatch returns a key -> value map for every key it could
	// resolve. Implementations batch internally to stay under API limits.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}

// NewSecretProvider picks the provider for appEnv. Under APP_ENV=local a
// pointer names another environment variable; everywhere else it is an SSM
// parameter path in region.
func NewSecretProvider(appEnv, region string) SecretProvider {
	if appEnv == localEnv {
		return NewEnvVarProvider()
	}
	return NewSSMProvider(region)
}
