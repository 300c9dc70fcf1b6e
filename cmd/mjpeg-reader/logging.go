package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = &logrus.Logger{
	Out:   os.Stdout,
	Level: logrus.InfoLevel,
	Hooks: make(logrus.LevelHooks),
	Formatter: &logrus.TextFormatter{
		FullTimestamp: true,
	},
}
