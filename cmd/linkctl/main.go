// cmd/linkctl/main.go
package main

import "link-service/internal/cli"

func main() {
	cli.Execute()
}
