package main

import (
	"os"

	log "github.com/CefBoud/kafkameta/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}
