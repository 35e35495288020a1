package main

import (
	"log"

	"github.com/carryhub/carry-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
