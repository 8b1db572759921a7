package config

const defaultTokenTTLHours = 24

type AuthConfig struct {
	Secret       string `yaml:"jwt-secret"`
	TokenTTLHour int64  `yaml:"token-ttl-hours"`
}

func (s *AuthConfig) JWTSecret() string {
	return s.Secret
}

func (s *AuthConfig) TokenTTLHours() int64 {
	if s.TokenTTLHour <= 0 {
		return defaultTokenTTLHours
	}
	return s.TokenTTLHour
}
