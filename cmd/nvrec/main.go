package main

import (
	"github.com/ssargent/nvrecord/cmd/nvrec/cmd"
	"github.com/ssargent/nvrecord/pkg/di"
)

func main() {
	// Initialize dependency injection container
	container := di.NewContainer()

	// Inject dependencies into cmd package
	cmd.SetContainer(container)

	cmd.Execute()
}
