// cmd/thermostat/main.go
package main

func main() {
	Execute()
}
