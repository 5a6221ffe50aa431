package main

import (
	"calshare/core/logger"
	"calshare/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
	}
}
