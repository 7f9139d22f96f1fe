package main

import "github.com/javanhut/artgit/cli"

func main() {
	cli.Execute()
}
