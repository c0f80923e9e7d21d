package main

import (
	"go.uber.org/zap"

	"github.com/cashplay-space/cashplay/internal/app/server"
	"github.com/cashplay-space/cashplay/pkg/logging"
)

func main() {
	logging.Fatal("Game server exited: ", zap.Error(
		server.NewServer().Start(),
	))
}
