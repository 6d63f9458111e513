package handler

import (
	"net/http"
	"sync"

	"ideanest-backend/bootstrap"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog/log"
)

var (
	once    sync.Once
	handler http.HandlerFunc
	initErr error
)

func load() {
	var fa *fiber.App
	fa, initErr = bootstrap.New()
	if initErr != nil {
		log.Error().Err(initErr).Msg("serverless bootstrap failed")
		return
	}
	handler = adaptor.FiberApp(fa)
}

// Handler is the Vercel entry point. The app is built on the first request of a
// cold start, and every request is rewritten to it.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(load)
	if initErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"error","error":{"message":"Service is starting up or misconfigured","statusCode":503,"details":{}}}`))
		return
	}
	r.RequestURI = r.URL.String()
	handler(w, r)
}
