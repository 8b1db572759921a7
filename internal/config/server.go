package config

type ServerConfig struct {
	ListenAddr string `yaml:"addr"`
}

func (s *ServerConfig) Addr() string {
	if s.ListenAddr == "" {
		return ":8080"
	}
	return s.ListenAddr
}
