package deps

import (
	"time"

	"github.com/MrSnakeDoc/registry/internal/auth"
	"github.com/MrSnakeDoc/registry/internal/logger"
	"github.com/MrSnakeDoc/registry/internal/registry"
	"github.com/MrSnakeDoc/registry/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/registry/internal/store/redis"
)

type Deps struct {
	Logger             logger.Logger
	StartTime          time.Time
	Version            string
	Commit             string
	BuildDate          string
	GoVersion          string
	TimeNow            func() time.Time         // for testing, defaults to time.Now
	AdminCIDRS         []string                 // IPs allowed to access operator endpoints
	TrustProxy         bool                     // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Store              *registry.Store          // registry state
	Gate               *auth.Gate               // admin checks & registration tokens
	HealthChecker      *scheduler.HealthChecker // periodic availability probes
	HealthcheckTrigger chan struct{}            // Channel to trigger an immediate health check
	Events             *redisstore.EventStore   // nil when the event feed is disabled
}
