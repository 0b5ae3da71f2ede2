package interfaces

import "portfolio-runner/src/models"

// IStatusExchanger is the surface the launcher publishes through and
// clients consume from (REST + websocket).
type IStatusExchanger interface {
	Start() error
	Stop() error
	PublishStatus(status models.MProcessStatus)
	PublishLog(line models.MLogLine)
}

// IRestarter triggers a supervised child restart.
// Implemented by the launcher, consumed by the watcher and control server.
type IRestarter interface {
	Restart(reason string) error
}
