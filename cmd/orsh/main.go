package main

import (
	"github.com/Paintersrp/orsh/internal/cli"
	"github.com/Paintersrp/orsh/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
