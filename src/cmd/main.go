package main

import (
	cfg "github.com/SatishBytes/thumbly/src/configuration"
	server "github.com/SatishBytes/thumbly/src/server"
)

func main() {
	config := cfg.ReadProperties()
	server.RunServer(config)
}
