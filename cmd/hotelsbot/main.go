// Command hotelsbot runs the Telegram hotel search bot.
package main

import (
	"log"

	corecmd "github.com/Rzhek/TelegramHotelsBot/core/cmd"
	"github.com/Rzhek/TelegramHotelsBot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: app.Bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}
