package devenv

// PortalTestConfig holds real portal credentials for the live tests, it is
// read from <dev_state>/portal_config.json5 and never committed.
type PortalTestConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
