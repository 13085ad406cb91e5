// eserbisyo is the E-Serbisyo community engagement service: a points
// ledger with levels and badges, plus a QR-based award validator for
// community event completions.
package main

import "github.com/e-serbisyo/engage/internal/cli"

func main() {
	cli.Execute()
}
