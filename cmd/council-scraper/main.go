package main

import "github.com/civiclens/council-scraper/cmd"

func main() {
	cmd.Execute()
}
