package main

import (
	"net/http"

	"github.com/mcdev12/quizlive/go/internal/config"
	"github.com/mcdev12/quizlive/go/internal/gateway"
)

func setupServer(cfg *config.Config, services *Services) *http.Server {
	router := gateway.NewRouter(services.Handler)
	return gateway.NewServer(cfg.Port, router)
}
