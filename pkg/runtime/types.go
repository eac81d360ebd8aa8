package runtime

// RunRequest is the body of POST /run.
type RunRequest struct {
	AppName    string  `json:"appName"`
	UserID     string  `json:"userId"`
	SessionID  string  `json:"sessionId"`
	NewMessage Content `json:"newMessage"`
}

// Content is a message in the runtime's conversation format.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is one piece of a message. Only text parts are produced by this client.
type Part struct {
	Text string `json:"text"`
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)
