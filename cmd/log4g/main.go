package main

import (
	"fmt"
	"os"
)

func main() {
	c, err := newCommand()
	if err == nil {
		err = c.Execute()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
