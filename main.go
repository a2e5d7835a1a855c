package main

import "github.com/maidsafe/safeload/cmd"

func main() {
	cmd.Execute()
}
