package main

import (
	libCommons "github.com/LerianStudio/lib-commons/v2/commons"

	"github.com/labelforge/labelforge/internal/bootstrap"
)

func main() {
	libCommons.InitLocalEnvConfig()
	bootstrap.InitServers().Run()
}
