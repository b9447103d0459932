package live

// Event is a client-to-server message naming a registered action. Value
// carries the optional input payload, for actions bound to form fields.
type Event struct {
	Action string `json:"action"`
	Value  string `json:"value,omitempty"`
}

// errorFrame is the server-to-client error envelope. Patches use the
// host.Patch shape; a frame carrying "error" instead of "instance" reports a
// rejected event.
type errorFrame struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
