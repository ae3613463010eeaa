package middlewares

// keys for gin's per-request store
const (
	CtxRequestID = "request_id"
	ctxUserIDKey = "auth.userID"
	ctxEmailKey  = "auth.email"
)
