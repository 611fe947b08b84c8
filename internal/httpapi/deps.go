package httpapi

import (
	"sync/atomic"

	"vacancyboard-engine/internal/action"
	"vacancyboard-engine/internal/config"
	"vacancyboard-engine/internal/events"
	"vacancyboard-engine/internal/refresh"
	"vacancyboard-engine/internal/state"
	"vacancyboard-engine/internal/submit"
)

type Deps struct {
	Hub *events.Hub

	Refresher  *refresh.Refresher
	Controller *action.Controller
	Submitter  *submit.Service
	Outbox     *state.Outbox

	// Atomic store for config.Config
	CfgVal *atomic.Value

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// TriggerRefresh kicks one cycle off-request (inject for testability)
	TriggerRefresh func()
}
