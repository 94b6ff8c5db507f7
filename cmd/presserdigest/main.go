package main

import "github.com/forPelevin/presserdigest/internal/cli"

func main() { cli.Main() }
