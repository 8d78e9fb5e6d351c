package httpapi

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
)

// BasicAuth 操作员接口的 HTTP basic auth 中间件
// 凭证与前端共享，比较用常数时间防止时序侧信道
func BasicAuth(username, password string, logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
			logger.Warn("Unauthorized API request",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			w.Header().Set("WWW-Authenticate", `Basic realm="logmonitor"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
