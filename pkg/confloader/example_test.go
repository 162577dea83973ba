package confloader_test

import (
	"fmt"

	"github.com/yndnr/layercfg/pkg/confloader"
)

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type AppConfig struct {
	confloader.Base
	Name   string       `koanf:"name"`
	Server ServerConfig `koanf:"server"`
}

func ExampleLoad() {
	cfg, err := confloader.Load[AppConfig](
		confloader.WithConfigFolder("testdata"),
		confloader.WithAppEnv("test"),
		confloader.WithOverrides(map[string]any{"server.port": 9443}),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(cfg.Name, cfg.Server.Host, cfg.Server.Port)
	// Output: myapp testhost 9443
}
