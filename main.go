package main

import "github.com/envcheck/envcheck/cmd/envcheck"

func main() { envcheck.Execute() }
