package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout:  "3s",
		Timeout:         "12s",
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    12,
		ValidateSSL:     BoolPtr(true),
		ClientRequestID: BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.ConnectTimeout == defaults.ConnectTimeout &&
		c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.GetClientRequestID() == defaults.GetClientRequestID() &&
		c.UserAgent == "" &&
		len(c.Headers) == 0 &&
		c.Certificates == "" &&
		c.Proxy == nil &&
		c.RateLimit == nil
}
