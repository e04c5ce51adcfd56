package main

import (
	"os"

	"github.com/warga-app/warga-server/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
