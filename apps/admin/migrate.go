package main

import (
	"github.com/nileshsabnis10/attendance/storage/database"
)

func (cli *commandLine) migrate(args []string) error {
	if len(args) == 0 || args[0] == "up" {
		return database.Migrate(cli.db)
	}
	return database.MigrateCommand(cli.db, args[0], args[1:]...)
}
