// Command dsbcal turns DSB train tickets into calendar events.
package main

func main() {
	Execute()
}
