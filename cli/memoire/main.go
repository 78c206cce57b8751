package main

import (
	"os"

	memoirecmder "github.com/fahd-noodleseed/memoire/cmd/memoire"
)

func main() {
	cmd := memoirecmder.NewMemoireCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
