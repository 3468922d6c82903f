// contexttlp: Traffic Light Protocol disclosure control for AI agents.
// Agents see RED content as placeholders; writes put it back.
package main

import "github.com/ppiankov/contexttlp/internal/cli"

func main() {
	cli.Execute()
}
