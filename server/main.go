package main

import "github.com/phambaophuc/image-ingest/server/cmd"

func main() {
	cmd.Execute()
}
