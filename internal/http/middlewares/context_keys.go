package middlewares

// Keys set on the gin context. Handlers read the request id by this name.
const (
	CtxRequestID = "request_id"
)
