package bridgefile

import (
	"os"

	"github.com/bridgeworks/slackrelay/internal/logger"
	"github.com/bridgeworks/slackrelay/internal/relay"
)

// Endpoints loads the bridge set and maps it onto relay endpoints.
// Environment variable groups win over the yaml file; the file is only
// consulted when no PORTAL_* groups are set.
func Endpoints(bridgesFile string, log logger.Logger) ([]*relay.Endpoint, error) {
	config, err := FromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	if len(config.Bridges) > 0 {
		log.Info("bridges loaded from environment", logger.Int("bridges", len(config.Bridges)))
		return NewMapper().MapEndpoints(config)
	}

	config, err = NewLoader(bridgesFile).Load()
	if err != nil {
		return nil, err
	}
	log.Info("bridges loaded from file",
		logger.String("file", bridgesFile),
		logger.Int("bridges", len(config.Bridges)))
	return NewMapper().MapEndpoints(config)
}
