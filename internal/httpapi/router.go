package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Board
	bh := BoardHandler{Refresher: d.Refresher}
	mux.HandleFunc("/board", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: bh.Get,
	}))

	// Actions
	ah := ActionsHandler{Controller: d.Controller}
	mux.HandleFunc("/actions", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.Apply,
	}))
	mux.HandleFunc("/actions/undo", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.Undo,
	}))

	// Submissions
	sh := SubmitHandler{Svc: d.Submitter}
	mux.HandleFunc("/reports", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.Report,
	}))
	mux.HandleFunc("/submissions", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.Missing,
	}))

	// Sync / refresh
	syh := SyncHandler{Outbox: d.Outbox, Refresher: d.Refresher}
	mux.HandleFunc("/sync/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: syh.Status,
	}))
	rh := RefreshHandler{Trigger: d.TriggerRefresh}
	mux.HandleFunc("/refresh", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Run,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (keychain only, never the DB)
	sech := SecretsHandler{}
	mux.HandleFunc("/api/secrets/sink", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sech.SetSinkToken,
		http.MethodDelete: sech.DeleteSinkToken,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Health
	hh := HealthHandler{}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	return mux
}
