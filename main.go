package main

import "github.com/shaharia-lab/alertmail/cmd"

func main() {
	cmd.Execute()
}
