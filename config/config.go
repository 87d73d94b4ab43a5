package config

import (
	"os"
	"strconv"
)

func IsDebug() bool {
	return os.Getenv("ENV") == "debug"
}

func IsTest() bool {
	return os.Getenv("ENV") == "test"
}

// IncludeCorrupt reports whether validation should be skipped. Defaults to false (strict).
func IncludeCorrupt() bool {
	v, err := strconv.ParseBool(os.Getenv("NETSCAN_INCLUDE_CORRUPT"))
	if err != nil {
		return false
	}
	return v
}
