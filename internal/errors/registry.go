package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryRuntime,
		Message:  "Runtime stopped",
		Detail:   "The host runtime has been stopped; no further instances can be mounted and dispatched callbacks are discarded.",
		DocURL:   "https://datum-dev.github.io/datum/errors/E001",
	},
	"E002": {
		Category: CategoryRuntime,
		Message:  "Dispatch queue full",
		Detail:   "The runtime loop is not keeping up with dispatched callbacks. Slow down producers or raise Config.DispatchQueue.",
		DocURL:   "https://datum-dev.github.io/datum/errors/E002",
	},

	// ============================================
	// Config Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryConfig,
		Message:  "Project file not found",
		Detail:   "The datum.toml project file does not exist at the given path.",
		DocURL:   "https://datum-dev.github.io/datum/errors/E020",
	},
	"E021": {
		Category: CategoryConfig,
		Message:  "Project file is not valid TOML",
		Detail:   "The datum.toml project file could not be parsed.",
		DocURL:   "https://datum-dev.github.io/datum/errors/E021",
	},
	"E022": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is outside its allowed range or has the wrong form.",
		DocURL:   "https://datum-dev.github.io/datum/errors/E022",
	},
	"E023": {
		Category: CategoryConfig,
		Message:  "Unrecognized configuration keys",
		Detail:   "The project file contains keys this version does not understand. They are usually typos.",
		DocURL:   "https://datum-dev.github.io/datum/errors/E023",
	},

	// ============================================
	// Live Server Errors (E040-E059)
	// ============================================

	"E040": {
		Category: CategoryLive,
		Message:  "WebSocket upgrade failed",
		Detail:   "The HTTP connection could not be upgraded to a WebSocket.",
		DocURL:   "https://datum-dev.github.io/datum/errors/E040",
	},
	"E041": {
		Category: CategoryLive,
		Message:  "Session not found",
		Detail:   "The session ID is invalid or the session has already closed.",
		DocURL:   "https://datum-dev.github.io/datum/errors/E041",
	},
	"E042": {
		Category: CategoryLive,
		Message:  "Action not found",
		Detail:   "The client referenced an action name that is not registered for this session. The page may be stale.",
		DocURL:   "https://datum-dev.github.io/datum/errors/E042",
	},
	"E043": {
		Category: CategoryLive,
		Message:  "Event decode failed",
		Detail:   "An incoming client event was not valid JSON or is missing required fields.",
		DocURL:   "https://datum-dev.github.io/datum/errors/E043",
	},

	// ============================================
	// Feed Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryFeed,
		Message:  "File watch setup failed",
		Detail:   "The feed could not install a filesystem watch for the given path.",
		DocURL:   "https://datum-dev.github.io/datum/errors/E060",
	},
	"E061": {
		Category: CategoryFeed,
		Message:  "Feed decode failed",
		Detail:   "The watched file changed but its contents could not be decoded. The container keeps its previous value.",
		DocURL:   "https://datum-dev.github.io/datum/errors/E061",
	},

	// ============================================
	// CLI Errors (E080-E099)
	// ============================================

	"E080": {
		Category: CategoryCLI,
		Message:  "Server failed to start",
		Detail:   "The live server could not bind its listen address.",
		DocURL:   "https://datum-dev.github.io/datum/errors/E080",
	},
	"E081": {
		Category: CategoryCLI,
		Message:  "Invalid benchmark parameters",
		Detail:   "The benchmark grid is out of range.",
		DocURL:   "https://datum-dev.github.io/datum/errors/E081",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
