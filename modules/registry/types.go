package registry

// JoinRequest is the body of a join call.
type JoinRequest struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// ExitRequest is the body of an exit call.
type ExitRequest struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// ServiceAddresses are the realtime endpoints a client connects to after a
// successful join.
type ServiceAddresses struct {
	Chat string `json:"chat"`
	Game string `json:"game"`
}

// JoinResponse is returned for every join attempt. Capacity rejections come
// back with Success=false and a human-readable message rather than an HTTP
// error.
type JoinResponse struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	SocketToken string            `json:"socketToken,omitempty"`
	ServiceAdds *ServiceAddresses `json:"serviceAdds,omitempty"`
}

// ExitResponse is returned for every exit call. Exit is idempotent, so
// Success is always true.
type ExitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
