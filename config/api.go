package config

import "strconv"

// APIPrefix is the mount point of the JSON API group.
const APIPrefix = "/api"

// FormAllowance is the multipart overhead allowed on top of the image ceiling.
const FormAllowance = 64 << 10

// BodyLimit returns the echo BodyLimit value for the API group.
func BodyLimit(cfg *Config) string {
	kb := (cfg.MaxImageBytes + FormAllowance + 1023) / 1024
	return strconv.FormatInt(kb, 10) + "K"
}
