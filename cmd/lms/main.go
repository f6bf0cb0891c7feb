package main

import "github.com/iliyamo/lms-client/cmd/lms/cmd"

func main() {
	cmd.Execute()
}
