package main

import "github.com/RentalNBDAC/PI-Budget-Calculator/cmd"

func main() {
	cmd.Execute()
}
