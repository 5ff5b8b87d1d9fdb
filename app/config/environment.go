package config

import "strings"

// Environment is the deployment environment the service runs in.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// ParseEnvironment accepts the canonical names and the dev/test/prod
// aliases. Anything else is treated as development.
func ParseEnvironment(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev":
		return EnvDevelopment
	case "testing", "test":
		return EnvTesting
	case "staging":
		return EnvStaging
	case "production", "prod":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func (e Environment) String() string { return string(e) }

// EndpointSecurityFor returns the endpoint exposure defaults for env.
func EndpointSecurityFor(env Environment) EndpointSecurityConfig {
	switch env {
	case EnvTesting:
		return EndpointSecurityConfig{
			PublicHealth:         true,
			ExposeHealthDetails:  true,
			PublicDetailedHealth: true,
			PublicMetrics:        true,
		}
	case EnvStaging, EnvProduction:
		return EndpointSecurityConfig{
			PublicHealth:        true,
			ExposeHealthDetails: true,
		}
	default:
		return EndpointSecurityConfig{
			PublicHealth:         true,
			ExposeHealthDetails:  true,
			PublicDetailedHealth: true,
			PublicMetrics:        true,
			ExposeSensitiveInfo:  true,
		}
	}
}
