// Datameta maintains a checksum manifest for a directory of JSON data files.
package main

import "github.com/albertocavalcante/datameta/cmd/datameta/internal/cli"

func main() {
	cli.Execute()
}
