// Command platen builds, arranges and exports printable scenes.
package main

import "github.com/chazu/platen/internal/cli"

func main() {
	cli.Execute()
}
