package main

import (
	"log"

	"github.com/flarebyte/amqkill/cmd"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("amqkill: ")
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
