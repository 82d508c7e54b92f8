package main

import "github.com/smilepool/smilepool-executor/pkg/cli"

func main() {
	cli.Execute()
}
