package loadgen

import "os"

// ShowHelp prints usage information for the load generator.
func ShowHelp() {
	os.Stdout.WriteString(`Combat log analyzer load generator
==================================

Uploads synthetic engagements, then checks the plots and merged table
the service returns for each of them.

Usage:
  go run ./cmd/loadgen [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -datasets int
        Number of engagements to upload (default 50)
  -enemies int
        Enemies per engagement (default 4)
  -events int
        Damage events per stream (default 200)
  -workers int
        Concurrent uploaders (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed uint
        Generator seed (default 1)
  -verbose
        Log every verified dataset
  -help
        Show this help message
`)
}
