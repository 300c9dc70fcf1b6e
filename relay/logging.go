package relay

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = &logrus.Logger{
	Out:   os.Stderr,
	Level: logrus.WarnLevel,
	Hooks: make(logrus.LevelHooks),
	Formatter: &logrus.TextFormatter{
		FullTimestamp: true,
	},
}
