package instance

import (
	"os"

	"github.com/angelmondragon/kitstore-backend/pkg/env"
)

// ID names this process in logs. KITSTORE_INSTANCE_ID wins, then the Heroku
// dyno name, then the host name.
func ID() string {
	if id := env.Get("KITSTORE_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
