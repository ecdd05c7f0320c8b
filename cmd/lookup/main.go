// Package main is the entry point for the lookup service.
package main

func main() {
	Execute()
}
