package config

type JaegerConfig struct {
	ServiceName string `yaml:"service-name"`
	AgentHost   string `yaml:"agent-host"`
}

func (s *JaegerConfig) Service() string {
	if s.ServiceName == "" {
		return "finance-tracker"
	}
	return s.ServiceName
}

func (s *JaegerConfig) Host() string {
	return s.AgentHost
}
